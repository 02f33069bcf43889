package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/appointments", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSAllowListed(t *testing.T) {
	r := newRouter([]string{"http://dashboard.test/"})

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Origin", "http://dashboard.test")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "http://dashboard.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/appointments", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
