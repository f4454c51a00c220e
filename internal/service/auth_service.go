package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

const minPasswordLength = 8

type AdminClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService signs in console admins. Every issued token is backed by a
// Redis session so it can be revoked before it expires.
type AuthService struct {
	adminRepo AdminRepository
	sessions  AdminSessionRepository
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(adminRepo AdminRepository, sessions AdminSessionRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		sessions:  sessions,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *AuthService) Secret() []byte {
	return s.secret
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.adminRepo.GetAdminByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error getting admin")
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		logger.Warn().Msgf("Failed login for %s", admin.Email)
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := &AdminClaims{
		Name:  admin.Name,
		Email: admin.Email,
		Role:  admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	if err := s.sessions.Create(ctx, claims.ID, admin.ID, s.ttl); err != nil {
		logger.Error().Err(err).Msg("Error storing admin session")
		return "", err
	}
	return t, nil
}

// Authorize checks that a verified token belongs to an admin whose session
// is still live.
func (s *AuthService) Authorize(ctx context.Context, claims *AdminClaims) error {
	if claims.Role != entity.RoleAdmin {
		return ErrForbidden
	}
	if claims.ID == "" {
		return ErrSessionRevoked
	}
	ok, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking admin session")
		return err
	}
	if !ok {
		return ErrSessionRevoked
	}
	return nil
}

func (s *AuthService) Logout(ctx context.Context, claims *AdminClaims) error {
	return s.sessions.Delete(ctx, claims.ID)
}

func (s *AuthService) CreateAdmin(ctx context.Context, email, name, password string) (*entity.Admin, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.CreateAdmin(ctx, &entity.Admin{
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		Role:         entity.RoleAdmin,
		PasswordHash: string(hash),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating admin")
		return nil, err
	}
	return admin, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
