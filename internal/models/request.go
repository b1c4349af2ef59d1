package models

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	AccountType string `json:"accountType" validate:"required,oneof=mentor mentee"`
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	// User's email address
	Email string `json:"email" validate:"required,email"`
	// User's password
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Message   string      `json:"message"`
	User      UserSummary `json:"user"`
	Token     string      `json:"token"`
	TokenType string      `json:"type"`
}

// UserSummary is the subset of a profile returned at login.
type UserSummary struct {
	ID          string `json:"id"`
	AccountType string `json:"accountType"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
