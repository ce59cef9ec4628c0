package models

import "github.com/golang-jwt/jwt/v5"

// Role values minted by the external identity service.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleInstructor Role = "INSTRUCTOR"
	RoleStudent    Role = "STUDENT"
)

// JWTClaims is the token payload this engine trusts. Tokens are issued by
// the external auth service; the engine only verifies and reads them.
type JWTClaims struct {
	UserID string `json:"uid"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
