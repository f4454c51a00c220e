package entity

// Notification is the post-payment message handed to the mailer.
type Notification struct {
	OrderNumber int64    `json:"order_number"`
	Reference   string   `json:"reference"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Subject     string   `json:"subject"`
	Lines       []string `json:"lines"`
	Total       string   `json:"total"`
}
