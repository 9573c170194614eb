// Package auth wraps the identity-verification capability. Token issuance
// belongs to the main authentication service; here a bearer token is only
// verified and turned into an identity.
package auth

import (
	"github.com/go-chi/jwtauth/v5"
)

type Service struct {
	tokenAuth *jwtauth.JWTAuth
}

// NewService creates a verifier over the shared HS256 secret.
func NewService(secretKey string) *Service {
	return &Service{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil),
	}
}

// GetAuth returns the JWTAuth instance for middleware
func (s *Service) GetAuth() *jwtauth.JWTAuth {
	return s.tokenAuth
}
