package service

import (
	"context"
	"time"

	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/internal/repository"
	"github.com/bibliotech/library-service/pkg/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type AuthService struct {
	log  *zap.Logger
	repo repository.AuthRepository
	now  func() time.Time
}

func NewAuthService(repo repository.AuthRepository, log *zap.Logger) *AuthService {
	return &AuthService{
		log:  log,
		repo: repo,
		now:  time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.UserCreateRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	role := req.Role
	if role == "" {
		role = auth.RoleReader
	}
	return s.repo.CreateUser(ctx, model.User{
		Username: req.Username,
		Password: string(hash),
		Email:    req.Email,
		Role:     role,
	})
}

func (s *AuthService) Authorize(ctx context.Context, req model.AuthRequest) (model.AuthResponse, error) {
	user, err := s.repo.GetUser(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.AuthResponse{}, errs.ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return model.AuthResponse{}, errs.ErrInvalidCredentials
	}

	expirationTime := s.now().Add(tokenTTL)
	claims := &auth.Claims{
		Profile: struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		}{
			Username: user.Username,
			Role:     user.Role,
		},
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(auth.JWTKey)
	if err != nil {
		return model.AuthResponse{}, errors.Wrap(err, "sign token")
	}

	return model.AuthResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
		ExpiresIn:   int(expirationTime.Unix()),
	}, nil
}

// Revoke blacklists the token until its natural expiry. Idempotent.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	return s.repo.RevokeToken(ctx, token, s.now().UTC())
}

func (s *AuthService) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.repo.IsRevoked(ctx, token)
}
