package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, Params{Limit: 50, Offset: 0}, DefaultParams(0, -1, 50, 200))
	assert.Equal(t, Params{Limit: 200, Offset: 10}, DefaultParams(999, 10, 50, 200))
	assert.Equal(t, Params{Limit: 5, Offset: 5}, DefaultParams(5, 5, 50, 200))
}

func TestNewMeta(t *testing.T) {
	assert.True(t, NewMeta(Params{Limit: 10, Offset: 0}, 11).HasMore)
	assert.False(t, NewMeta(Params{Limit: 10, Offset: 10}, 20).HasMore)
}

func TestFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?limit=abc&offset=20", nil)

	assert.Equal(t, Params{Limit: 50, Offset: 20}, FromQuery(c, 50, 200))
}
