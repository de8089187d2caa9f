package metrics

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "codeberg.org/avksport/server"

// auth outcome counters; a nil *Recorder records nothing
type Recorder struct {
	provider      *sdkmetric.MeterProvider
	logins        metric.Int64Counter
	registrations metric.Int64Counter
	exchanges     metric.Int64Counter
	resets        metric.Int64Counter
	sweeps        metric.Int64Counter
}

// sets up an otel meter provider exporting to reg and registers it globally
func New(reg prometheus.Registerer, serviceName string) (*Recorder, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(meterName)
	r := &Recorder{provider: provider}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&r.logins, "auth_login_attempts", "password login attempts by outcome"},
		{&r.registrations, "auth_registrations", "account registrations by outcome"},
		{&r.exchanges, "auth_oauth_exchanges", "oauth session exchanges by outcome"},
		{&r.resets, "auth_password_resets", "password reset requests and completions by stage"},
		{&r.sweeps, "auth_sessions_swept", "expired sessions removed by the cleanup service"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}

		*c.dst = counter
	}

	return r, nil
}

func (r *Recorder) Login(ctx context.Context, outcome string) {
	if r == nil {
		return
	}

	r.add(ctx, r.logins, 1, outcome)
}

func (r *Recorder) Registration(ctx context.Context, outcome string) {
	if r == nil {
		return
	}

	r.add(ctx, r.registrations, 1, outcome)
}

func (r *Recorder) Exchange(ctx context.Context, outcome string) {
	if r == nil {
		return
	}

	r.add(ctx, r.exchanges, 1, outcome)
}

func (r *Recorder) PasswordReset(ctx context.Context, stage string) {
	if r == nil {
		return
	}

	r.add(ctx, r.resets, 1, stage)
}

func (r *Recorder) SessionsSwept(removed int64) {
	if r != nil && removed > 0 {
		r.add(context.Background(), r.sweeps, removed, "expired")
	}
}

// flushes and stops the meter provider
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}

	return r.provider.Shutdown(ctx)
}

func (r *Recorder) add(ctx context.Context, counter metric.Int64Counter, n int64, outcome string) {
	counter.Add(ctx, n, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// serves the prometheus exposition for g
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
