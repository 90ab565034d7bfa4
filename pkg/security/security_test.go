package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(h ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(h...)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func request(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSWhitelist(t *testing.T) {
	r := newEngine(CORS([]string{"https://school.example"}))

	w := request(r, http.MethodGet, "https://school.example")
	assert.Equal(t, "https://school.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(r, http.MethodGet, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = request(r, http.MethodOptions, "https://school.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSAllowAll(t *testing.T) {
	r := newEngine(CORS(nil))
	w := request(r, http.MethodGet, "https://any.example")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSecureHeaders(t *testing.T) {
	w := request(newEngine(Secure()), http.MethodGet, "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiterBlocksBurst(t *testing.T) {
	r := newEngine(RateLimiter(2, time.Hour))

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(r, http.MethodGet, "").Code)
}
