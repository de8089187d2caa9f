package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Params holds pagination parameters from request
type Params struct {
	Limit  int
	Offset int
}

// Meta holds pagination metadata for response
type Meta struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// NewMeta creates pagination metadata from params and total count
func NewMeta(params Params, total int64) Meta {
	return Meta{
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		HasMore: int64(params.Offset+params.Limit) < total,
	}
}

// DefaultParams returns pagination params with defaults applied
// defaultLimit: default items per page, maxLimit: maximum allowed limit
func DefaultParams(limit, offset, defaultLimit, maxLimit int) Params {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{
		Limit:  limit,
		Offset: offset,
	}
}

// FromQuery reads ?limit= and ?offset=; malformed values fall back to the defaults
func FromQuery(c *gin.Context, defaultLimit, maxLimit int) Params {
	limit, _ := strconv.Atoi(c.Query("limit"))   //nolint:errcheck // zero means default
	offset, _ := strconv.Atoi(c.Query("offset")) //nolint:errcheck // zero means first page

	return DefaultParams(limit, offset, defaultLimit, maxLimit)
}
