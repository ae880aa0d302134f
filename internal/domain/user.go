package domain

// User is an operator account allowed to sign in to the web UI.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email,omitempty"`
	Active       bool   `json:"active"`
}
