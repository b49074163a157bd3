package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/storefront/internal/entity"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	args := m.Called(ctx, name)
	r, _ := args.Get(0).(*entity.Role)
	return r, args.Error(1)
}

func (m *mockUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

const secret = "test-secret"

func signed(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func newRouter(m *AuthMiddleware, admin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{m.RequireAuth()}
	if admin {
		handlers = append(handlers, m.RequireAdmin())
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	r.GET("/me", handlers...)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorBody {
	t.Helper()
	var env dto.Envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New().String()
	m := NewAuthMiddleware(&mockUserRepo{}, secret)
	r := newRouter(m, false)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer header", "Bearer " + signed(t, userID, time.Now().Add(time.Hour)), "", http.StatusOK},
		{"query fallback", "", signed(t, userID, time.Now().Add(time.Hour)), http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, userID, time.Now().Add(-time.Minute)), "", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID, w.Body.String())
				return
			}
			assert.Equal(t, apperror.CodeNotAuthorized, decodeError(t, w).Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	adminID, memberID := uuid.New(), uuid.New()
	repo := &mockUserRepo{}
	repo.On("FindByID", mock.Anything, adminID).Return(&entity.User{ID: adminID, Role: entity.Role{Name: entity.RoleAdmin}}, nil)
	repo.On("FindByID", mock.Anything, memberID).Return(&entity.User{ID: memberID, Role: entity.Role{Name: entity.RoleMember}}, nil)

	r := newRouter(NewAuthMiddleware(repo, secret), true)

	call := func(id uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signed(t, id.String(), time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call(adminID).Code)

	w := call(memberID)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, decodeError(t, w).Code)
}
