package auth

// AccessClaims are the custom claims carried in an access token.
type AccessClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	TokenID string `json:"jti"`
}
