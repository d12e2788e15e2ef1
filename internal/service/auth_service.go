package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/pkg/config"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

// UserReader resolves accounts for authentication.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	TouchLastLogin(ctx context.Context, userID string) error
}

// AuthService issues and validates bearer tokens.
type AuthService struct {
	users  UserReader
	cfg    config.JWTConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users UserReader, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, cfg: cfg, logger: logger, now: time.Now}
}

// Login verifies credentials and returns a signed token. Unknown
// accounts and wrong passwords share one error so callers cannot probe
// for registered emails.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, appErrors.ErrInactiveAccount
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, "TOKEN_ERROR", 500, "failed to issue token")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record login", zap.String("user_id", user.ID), zap.Error(err))
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.Expiration.Seconds()),
		User:      user,
	}, nil
}

// Me returns the account behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ValidateToken parses a bearer token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now()
	claims := models.JWTClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.FullName,
		Role:     user.Role,
		LabID:    user.LabID,
		DoctorID: user.DoctorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}
