package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MockJWTService is a JWTService for handler and middleware tests.
type MockJWTService struct {
	GenerateTokenFunc func(ctx context.Context, learnerID string) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	Token           string
	TokenError      error
	ValidationError error
	Claims          *Claims
}

var _ JWTService = (*MockJWTService)(nil)

// NewMockJWTService returns a mock that accepts every token as learnerID.
func NewMockJWTService(learnerID string) *MockJWTService {
	now := time.Now()
	return &MockJWTService{
		Token: "mock-jwt-token",
		Claims: &Claims{
			LearnerID: learnerID,
			Subject:   learnerID,
			IssuedAt:  now,
			ExpiresAt: now.Add(time.Hour),
			ID:        uuid.NewString(),
		},
	}
}

// GenerateToken implements JWTService.
func (m *MockJWTService) GenerateToken(ctx context.Context, learnerID string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, learnerID)
	}
	return m.Token, m.TokenError
}

// ValidateToken implements JWTService.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	if m.ValidationError != nil {
		return nil, m.ValidationError
	}
	return m.Claims, nil
}
