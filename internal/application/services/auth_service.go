package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmaster/crm/internal/infrastructure/config"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// ErrInvalidToken is returned for tokens that fail signature, issuer or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// AuthService issues and checks the bearer tokens that guard the API.
// There are no user accounts: a token names an operator and is minted by
// the command line.
type AuthService struct {
	authConfig config.AuthConfig
	now        func() time.Time
	logger     *logger.Logger
}

// Claims represents JWT claims
type Claims struct {
	jwt.RegisteredClaims
}

// NewAuthService creates a new auth service
func NewAuthService(authConfig config.AuthConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		authConfig: authConfig,
		now:        time.Now,
		logger:     logger,
	}
}

// IssueToken signs a token for subject that expires after the configured lifetime.
func (s *AuthService) IssueToken(subject string) (*ports.TokenResponse, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.New("token subject is required")
	}

	now := s.now()
	expiresAt := now.Add(s.authConfig.ExpiresIn)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.authConfig.Issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.authConfig.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Infow("Token issued", "subject", subject, "expires_at", expiresAt)

	return &ports.TokenResponse{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.Secret), nil
	},
		jwt.WithIssuer(s.authConfig.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &ports.Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
