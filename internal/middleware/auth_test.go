package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, roles []string, expires time.Time) string {
	t.Helper()
	claims := JWTClaims{
		UserID: "u-1",
		Name:   "Ana",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	g := r.Group("", JWTAuth(testSecret))
	g.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})
	g.POST("/admin", RequireRole("crm_admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newAuthRouter()
	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), nil, time.Now().Add(time.Hour))

	w := serve(r, "GET", "/me", valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, "GET", "/me?token="+valid, "")
	assert.Equal(t, http.StatusOK, w.Code, "query token accepted")

	w = serve(r, "GET", "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "40100")

	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), nil, time.Now().Add(-time.Minute))
	w = serve(r, "GET", "/me", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "40102")

	other := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), nil, time.Now().Add(time.Hour))
	w = serve(r, "GET", "/me", other)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "only HS256 is accepted")
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter()
	exp := time.Now().Add(time.Hour)

	admin := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), []string{"crm_viewer", "crm_admin"}, exp)
	assert.Equal(t, http.StatusNoContent, serve(r, "POST", "/admin", admin).Code)

	viewer := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), []string{"crm_viewer"}, exp)
	w := serve(r, "POST", "/admin", viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "40300")
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRole("crm_admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "GET", "/x", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "40310")
}
