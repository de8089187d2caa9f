package health

import "context"

const serviceName = "avk-auth"

// Response represents the health check response
type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// anything that can confirm its backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}
