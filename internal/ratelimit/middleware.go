package ratelimit

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"codeberg.org/avksport/server/internal/errors"
	"codeberg.org/avksport/server/internal/logger"
)

// per-client throttle for credential endpoints
type Throttle struct {
	config  *Config
	limiter *limiter.Limiter
}

// in-process counters; limits apply per instance
func New(config *Config) (*Throttle, error) {
	rate, err := config.rate()
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", config.Rate, err)
	}

	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          config.Prefix,
		CleanUpInterval: time.Minute,
	})

	return &Throttle{config: config, limiter: limiter.New(store, rate)}, nil
}

// counters shared between instances through redis
func NewWithRedis(config *Config, client *redis.Client) (*Throttle, error) {
	rate, err := config.rate()
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", config.Rate, err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: config.Prefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}

	return &Throttle{config: config, limiter: limiter.New(store, rate)}, nil
}

// returns a Gin middleware limiting each client ip per route
func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.config.Enabled || t.config.IsExemptPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		key := ip + ":" + c.FullPath()

		result, err := t.limiter.Get(c.Request.Context(), key)
		if err != nil {
			// a broken counter store should not lock users out
			logger.ErrorErr(err, "failed to check rate limit", "ip", ip)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

		if result.Reached {
			t.handleRateLimited(c, ip, result)
			return
		}

		c.Next()
	}
}

func (t *Throttle) handleRateLimited(c *gin.Context, ip string, result limiter.Context) {
	logger.Warn("rate limit exceeded", "ip", ip, "path", c.FullPath())

	retry := time.Until(time.Unix(result.Reset, 0))
	if retry < time.Second {
		retry = time.Second
	}

	c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
	errors.TooManyRequests(c, "too many requests. please slow down.")
	c.Abort()
}
