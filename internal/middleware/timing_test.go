package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestRequestTracing_SetsSpanInContext(t *testing.T) {
	router := gin.New()
	router.Use(RequestTracing())
	var span trace.Span
	router.GET("/v1/onboarding/:role", func(c *gin.Context) {
		span = trace.SpanFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/onboarding/worker", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, span)
}

func TestRequestTracing_ServerError(t *testing.T) {
	router := gin.New()
	router.Use(RequestTracing())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
