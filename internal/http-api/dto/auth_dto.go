package dto

// Data Transfer Objects for signup and token issuance

// SignupRequest: payload for registration
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email"`
}

// SignupResponse echoes the created profile; the confirmation code travels
// by email only.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code for a token.
// Fields are unbound so both missing values can be reported together.
type TokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

// TokenResponse: the issued bearer token
type TokenResponse struct {
	Token string `json:"token"`
}
