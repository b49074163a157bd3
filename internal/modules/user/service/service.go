package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/storefront/internal/entity"
	"anoa.com/storefront/internal/modules/user/repository"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)

type AuthService interface {
	Login(ctx context.Context, input dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuthService(repo repository.UserRepository, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User: dto.UserSummary{
			ID:        user.ID,
			Username:  user.Username,
			AvatarURL: user.AvatarURL,
			Role:      user.Role.Name,
		},
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
}
