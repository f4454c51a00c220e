package repository

import (
	"context"
	"database/sql"
	"errors"

	"storefront-service/internal/entity"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db}
}

func (r *AdminRepository) GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	admin := &entity.Admin{}
	query := `SELECT id, email, name, role, password_hash, created_at FROM admins WHERE email = ?`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&admin.ID, &admin.Email, &admin.Name, &admin.Role, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (r *AdminRepository) CreateAdmin(ctx context.Context, admin *entity.Admin) (*entity.Admin, error) {
	query := `INSERT INTO admins (email, name, role, password_hash) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, admin.Email, admin.Name, admin.Role, admin.PasswordHash)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	admin.ID = id
	return admin, nil
}
