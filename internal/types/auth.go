package types

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email     string `json:"email" example:"alice@example.com"`
	Password  string `json:"password" example:"Abcd1234!"`
	FirstName string `json:"first_name" example:"Alice"`
	LastName  string `json:"last_name" example:"Smith"`
}

type RegisterResponse struct {
	Message           string `json:"message"`
	User              *User  `json:"user"`
	VerificationToken string `json:"verification_token,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"Abcd1234!"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type MeResponse struct {
	User *User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorBody is the {error} envelope every failing endpoint returns.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ValidationErrorBody is the per-field {errors} envelope.
type ValidationErrorBody struct {
	Errors    map[string][]string `json:"errors"`
	RequestID string              `json:"request_id,omitempty"`
}
