package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T, ttl time.Duration) *authService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(AuthConfig{
		JWTSecret:            "test-secret",
		AccessTokenTTL:       ttl,
		ExaminerUsername:     "examiner",
		ExaminerPasswordHash: string(hash),
	}).(*authService)
}

func TestLogin_IssuesValidToken(t *testing.T) {
	svc := newTestAuth(t, time.Hour)

	token, err := svc.Login(context.Background(), "examiner", "s3cret")
	require.NoError(t, err)

	examiner, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "examiner", examiner.Username)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc := newTestAuth(t, time.Hour)

	_, err := svc.Login(context.Background(), "examiner", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "someone", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestAuth(t, -time.Minute)

	token, err := svc.generateToken("examiner")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestAuth(t, time.Hour)
	token, err := svc.generateToken("examiner")
	require.NoError(t, err)

	other := NewAuthService(AuthConfig{JWTSecret: "different"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
