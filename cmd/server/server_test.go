package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/avksport/server/internal/config"
	"codeberg.org/avksport/server/internal/ratelimit"
)

func TestNewRouter_ClientIPIgnoresSpoofedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, err := newRouter(&config.Config{})
	require.NoError(t, err)

	throttleConfig := ratelimit.DefaultConfig()
	throttleConfig.Rate = "1-M"

	throttle, err := ratelimit.New(throttleConfig)
	require.NoError(t, err)

	router.POST("/api/auth/login", throttle.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.ClientIP())
	})

	send := func(forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", forwardedFor)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send("1.1.1.1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "198.51.100.7", w.Body.String())

	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2").Code)
}

func TestNewRouter_InvalidTrustedProxies(t *testing.T) {
	_, err := newRouter(&config.Config{TrustedProxies: []string{"not-an-ip"}})
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}
