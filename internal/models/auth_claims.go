package models

import "github.com/golang-jwt/jwt/v5"

// JwtCustomClaims carries the resolved marketplace profile of the caller.
// The identity provider maps the login account to a profile id before
// issuing the token; this service never sees credentials.
type JwtCustomClaims struct {
	ProfileID int64  `json:"profileID"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// ErrorResponse is the uniform error body returned by the API.
type ErrorResponse struct {
	Message string `json:"message"`
}
