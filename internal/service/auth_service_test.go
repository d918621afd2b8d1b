package service

import (
	"testing"

	"quizfunnel/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	cfg := config.Default()
	svc := NewAuthService(cfg)

	_, err := svc.Login(cfg.AuthorUsername, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(cfg.AuthorUsername, cfg.AuthorPassword)
	require.NoError(t, err)
	assert.Equal(t, AuthorID(cfg.AuthorUsername), resp.AuthorID)

	claims, err := svc.ValidateAuthorToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.AuthorID, claims.AuthorID)
}

func TestAuthService_TokensAreNotInterchangeable(t *testing.T) {
	cfg := config.Default()
	svc := NewAuthService(cfg)

	login, err := svc.Login(cfg.AuthorUsername, cfg.AuthorPassword)
	require.NoError(t, err)
	respondent, err := svc.GenerateRespondentToken("sess-1", "quiz-1")
	require.NoError(t, err)

	_, err = svc.ValidateRespondentToken(login.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ValidateAuthorToken(respondent)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := svc.ValidateRespondentToken(respondent)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestAuthService_RejectsForeignSecret(t *testing.T) {
	cfg := config.Default()
	other := config.Default()
	other.JWTSecret = "another-secret"

	token, err := NewAuthService(other).GenerateRespondentToken("sess-1", "quiz-1")
	require.NoError(t, err)

	_, err = NewAuthService(cfg).ValidateRespondentToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
