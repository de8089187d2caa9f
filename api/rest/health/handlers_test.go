package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	up := gin.New()
	up.GET("/health", Handler)
	up.GET("/ping", PingHandler)
	up.GET("/ready", ReadyHandler(pingerFunc(func(context.Context) error { return nil })))

	assert.Equal(t, http.StatusOK, get(up, "/health").Code)
	assert.Contains(t, get(up, "/ping").Body.String(), "pong")
	assert.Equal(t, http.StatusOK, get(up, "/ready").Code)

	down := gin.New()
	down.GET("/ready", ReadyHandler(pingerFunc(func(context.Context) error { return errors.New("no primary") })))

	w := get(down, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "no primary")
}
