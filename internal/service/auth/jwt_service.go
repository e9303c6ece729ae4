// Package auth validates and issues the bearer tokens that identify learners.
package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the learner.
	GenerateToken(ctx context.Context, learnerID string) (string, error)

	// ValidateToken validates the token string and extracts the claims.
	// It returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on
	// failure, and ErrMissingLearner when the token names no learner.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated contents of a token.
type Claims struct {
	// LearnerID is the opaque identity the engine keys review state by. It
	// comes from the learner_id claim, or from sub when that is absent.
	LearnerID string `json:"learner_id"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
