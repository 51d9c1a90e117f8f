package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "github.com/njprem/Session_Auth_BackEnd"

type Settings struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Environment string
	Interval    time.Duration
}

// InitMeterProvider installs the global meter provider. Without an endpoint
// the provider has no reader and instruments are effectively discarded.
func InitMeterProvider(ctx context.Context, s Settings) (*sdkmetric.MeterProvider, error) {
	if s.Endpoint == "" {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logrus.Info("otel metrics exporter disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.Endpoint)}
	if s.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", s.ServiceName),
			attribute.String("deployment.environment", s.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)
	logrus.WithField("endpoint", s.Endpoint).Info("otel metrics initialized")
	return mp, nil
}

// Metrics holds the authentication counters. A nil *Metrics records nothing.
type Metrics struct {
	authOutcomes    metric.Int64Counter
	refreshAttempts metric.Int64Counter
	loginAttempts   metric.Int64Counter
	revocations     metric.Int64Counter
}

func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	authOutcomes, err := meter.Int64Counter("auth.request.outcomes",
		metric.WithDescription("Request authentication decisions by outcome"))
	if err != nil {
		return nil, err
	}
	refreshAttempts, err := meter.Int64Counter("auth.refresh.attempts",
		metric.WithDescription("Access token reissue attempts"))
	if err != nil {
		return nil, err
	}
	loginAttempts, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	revocations, err := meter.Int64Counter("auth.session.revocations",
		metric.WithDescription("Sessions terminated, by reason"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		authOutcomes:    authOutcomes,
		refreshAttempts: refreshAttempts,
		loginAttempts:   loginAttempts,
		revocations:     revocations,
	}, nil
}

func (m *Metrics) RecordAuthOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordRefresh(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.refreshAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordLogin(ctx context.Context, provider, status string) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

func (m *Metrics) RecordRevocation(ctx context.Context, reason string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.revocations.Add(ctx, count, metric.WithAttributes(attribute.String("reason", reason)))
}
