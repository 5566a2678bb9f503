package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_EmitsAccessLine(t *testing.T) {
	var captured []ectologger.EctoLogMessage
	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		captured = append(captured, msg)
	})

	e := echo.New()
	e.Use(Logger(logger))
	e.GET("/api/v1/deaths/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/deaths/abc123", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Len(t, captured, 1)
	msg := captured[0]
	assert.Equal(t, "Request", msg.Message)
	assert.Equal(t, "req-1", msg.Fields["request_id"])
	assert.Equal(t, http.MethodGet, msg.Fields["method"])
	assert.Equal(t, "/api/v1/deaths/:id", msg.Fields["route"])
	assert.Equal(t, "/api/v1/deaths/abc123", msg.Fields["uri"])
	assert.Equal(t, http.StatusOK, msg.Fields["status"])
	assert.Contains(t, msg.Fields, "duration_ms")
	assert.Contains(t, msg.Fields, "response_size")
}

func TestLogger_GeneratesRequestIDWhenAbsent(t *testing.T) {
	var captured []ectologger.EctoLogMessage
	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		captured = append(captured, msg)
	})

	e := echo.New()
	e.Use(Logger(logger))
	e.GET("/api/v1/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, captured, 1)
	id, ok := captured[0].Fields["request_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
}
