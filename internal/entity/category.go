package entity

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,max=128"`
	Slug        string `json:"slug" validate:"required,max=128"`
	Description string `json:"description"`
}
