package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"anoa.com/storefront/internal/entity"
	userRepo "anoa.com/storefront/internal/modules/user/repository"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

func unauthorized(c *gin.Context, msg string) {
	response.Error(c, apperror.New(http.StatusUnauthorized, msg, apperror.ErrNotAuthorized))
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = strings.TrimSpace(parts[1])
			}
		}

		// Browsers cannot set headers on a websocket handshake.
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			unauthorized(c, "authorization required")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				unauthorized(c, "token expired")
				return
			}
			unauthorized(c, "invalid token")
			return
		}

		if claims.Subject == "" {
			unauthorized(c, "invalid token claims")
			return
		}

		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			unauthorized(c, "user not authenticated")
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			unauthorized(c, "user not found")
			return
		}

		if user.Role.Name != entity.RoleAdmin {
			response.Error(c, apperror.New(http.StatusForbidden, "admin access required", apperror.ErrForbidden))
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
