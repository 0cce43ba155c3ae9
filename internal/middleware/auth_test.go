package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/anchor/internal/auth"
	"github.com/ukydev/anchor/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthMiddleware_Authenticate(t *testing.T) {
	authService := auth.NewService("test-secret", 0)
	middleware := NewAuthMiddleware(authService)

	user := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "testuser",
	}
	token, err := authService.GenerateToken(user)
	require.NoError(t, err)

	t.Run("valid header token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/user/connect/nearby", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			claims, ok := GetUserFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, user.ID.Hex(), claims.UserID)
			assert.Equal(t, user.Username, claims.Username)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("token in body is accepted and body is preserved", func(t *testing.T) {
		body := `{"token":"` + token + `","location":{"city":"Pune"}}`
		req := httptest.NewRequest("POST", "/user/connect/usergeodata", strings.NewReader(body))
		w := httptest.NewRecorder()

		var seen string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = string(b)
			claims, ok := GetUserFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, user.ID.Hex(), claims.UserID)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, body, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/user/userlocation", nil)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Authorization token required"}`, w.Body.String())
	})

	t.Run("body without token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/user/connect/usergeodata", strings.NewReader(`{"city":"Pune"}`))
		w := httptest.NewRecorder()

		middleware.Authenticate(http.NotFoundHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/user/userlocation", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip auth path", func(t *testing.T) {
		for _, path := range []string{"/", "/health", "/user/login", "/user/signup"} {
			req := httptest.NewRequest("POST", path, nil)
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			middleware.Authenticate(handler).ServeHTTP(w, req)
			assert.True(t, handlerCalled, path)
		}
	})
}

func TestAuthMiddleware_RequireAdmin(t *testing.T) {
	authService := auth.NewService("test-secret", 0)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name    string
		isAdmin bool
		want    int
	}{
		{"admin allowed", true, http.StatusOK},
		{"member forbidden", false, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := authService.GenerateToken(&models.User{
				ID:       primitive.NewObjectID(),
				Username: "someone",
				IsAdmin:  tt.isAdmin,
			})
			req := httptest.NewRequest("GET", "/user/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			middleware.Authenticate(middleware.RequireAdmin(handler)).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	t.Run("no claims", func(t *testing.T) {
		w := httptest.NewRecorder()
		middleware.RequireAdmin(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserFromContext(t *testing.T) {
	claims := &models.Claims{
		UserID:   "test-id",
		Username: "testuser",
	}

	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	retrievedClaims, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims.UserID, retrievedClaims.UserID)
	assert.Equal(t, claims.Username, retrievedClaims.Username)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	middleware := NewAuthMiddleware(auth.NewService("test-secret", 0))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  primitive.NewObjectID().Hex(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/user/userlocation", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()
	middleware.Authenticate(http.NotFoundHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Token expired"}`, w.Body.String())
}
