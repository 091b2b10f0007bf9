package httpx_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/httpx"
	"github.com/oggyb/model-agency/internal/logger"
)

func newEngine(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New(logger.Config{Level: "debug", Format: logger.FormatJSON, Output: buf})

	r := gin.New()
	r.Use(httpx.Recovery(log), httpx.RequestLogger(log))
	r.GET("/missing", func(c *gin.Context) {
		httpx.Error(c, log, svcErr.NotFound("profile not found"))
	})
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	r.GET("/scoped", func(c *gin.Context) {
		logger.FromContext(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestErrorWritesMappedStatus(t *testing.T) {
	var buf bytes.Buffer
	rec := httptest.NewRecorder()
	newEngine(&buf).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"profile not found"}`, rec.Body.String())
}

func TestRecoveryAnswers500(t *testing.T) {
	var buf bytes.Buffer
	rec := httptest.NewRecorder()
	newEngine(&buf).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRequestLoggerTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	newEngine(&buf).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"inside handler","request_id":"req-42"`)
	assert.Contains(t, out, `"msg":"http request","request_id":"req-42"`)

	// a fresh id is generated when the client sends none
	rec = httptest.NewRecorder()
	newEngine(&buf).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoped", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}
