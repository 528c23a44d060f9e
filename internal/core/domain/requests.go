package domain

// Actor is the caller identity supplied by the identity collaborator.
// The core trusts it and does not re-verify credentials.
type Actor struct {
	ID    string
	Email string
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SessionRequest is the body of session create and update calls.
type SessionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ideas       []string `json:"ideas"`
}

// PeekResponse is the body returned by POST /sessions/:id/peek.
type PeekResponse struct {
	SelectedIdea string `json:"selectedIdea"`
	PeekCount    int64  `json:"peekCount"`
}
