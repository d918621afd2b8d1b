package service

import (
	"crypto/subtle"
	"errors"
	"quizfunnel/internal/config"
	"quizfunnel/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles author and respondent authentication
type AuthService struct {
	authorUsername string
	authorPassword string
	jwtSecret      []byte
	authorTTL      time.Duration
	respondentTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		authorUsername: cfg.AuthorUsername,
		authorPassword: cfg.AuthorPassword,
		jwtSecret:      []byte(cfg.JWTSecret),
		authorTTL:      cfg.AuthorTokenTTL,
		respondentTTL:  cfg.RespondentTokenTTL,
	}
}

// AuthorID derives the stable owner id for an author account
func AuthorID(username string) string {
	return "author_" + username
}

// Login validates credentials and returns an author token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.authorUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.authorPassword)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	authorID := AuthorID(username)
	now := time.Now()
	claims := &model.AuthorClaims{
		AuthorID: authorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   authorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.authorTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:    tokenString,
		AuthorID: authorID,
	}, nil
}

// ValidateAuthorToken validates an author JWT and returns claims
func (s *AuthService) ValidateAuthorToken(tokenString string) (*model.AuthorClaims, error) {
	claims := &model.AuthorClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.AuthorID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateRespondentToken creates a session-scoped token for a respondent
func (s *AuthService) GenerateRespondentToken(sessionID, quizID string) (string, error) {
	now := time.Now()
	claims := &model.RespondentClaims{
		SessionID: sessionID,
		QuizID:    quizID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.respondentTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateRespondentToken validates a respondent JWT and returns claims
func (s *AuthService) ValidateRespondentToken(tokenString string) (*model.RespondentClaims, error) {
	claims := &model.RespondentClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
