package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookd/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, tokenType string, role users.Role, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"email":   "someone@example.com",
		"role":    string(role),
		"type":    tokenType,
		"exp":     time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		p, ok := CurrentUser(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, p.ID.String())
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	userID := uuid.New()
	r := newEngine(JWTAuth(testSecret))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+signToken(t, "other", "access", users.RoleAudience, userID)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+signToken(t, testSecret, "refresh", users.RoleAudience, userID)).Code)

	w := do(r, "Bearer "+signToken(t, testSecret, "access", users.RoleAudience, userID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	userID := uuid.New()
	r := newEngine(OptionalAuth(testSecret))

	assert.Equal(t, "anonymous", do(r, "").Body.String())
	assert.Equal(t, "anonymous", do(r, "Bearer garbage").Body.String())
	assert.Equal(t, userID.String(), do(r, "Bearer "+signToken(t, testSecret, "access", users.RoleOrganiser, userID)).Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := newEngine(JWTAuth(testSecret), RequireRoles(users.RoleOrganiser, users.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+signToken(t, testSecret, "access", users.RoleAudience, uuid.New())).Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer "+signToken(t, testSecret, "access", users.RoleOrganiser, uuid.New())).Code)

	admin := newEngine(JWTAuth(testSecret), RequireAdmin())
	assert.Equal(t, http.StatusForbidden, do(admin, "Bearer "+signToken(t, testSecret, "access", users.RoleOrganiser, uuid.New())).Code)
}
