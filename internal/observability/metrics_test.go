package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string, attr attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s has unexpected data type %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attr.Key); ok && v.AsString() == attr.Value.AsString() {
					total += dp.Value
				}
			}
			return total
		}
	}
	return 0
}

func TestMetricsRecordsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics returned error: %v", err)
	}

	ctx := context.Background()
	metrics.RecordAuthOutcome(ctx, "authenticated")
	metrics.RecordAuthOutcome(ctx, "authenticated")
	metrics.RecordAuthOutcome(ctx, "rejected")
	metrics.RecordRefresh(ctx, "reissued")
	metrics.RecordLogin(ctx, "password", "success")
	metrics.RecordRevocation(ctx, "logout", 1)
	metrics.RecordRevocation(ctx, "admin", 3)
	metrics.RecordRevocation(ctx, "admin", 0)

	if got := collectSum(t, reader, "auth.request.outcomes", attribute.String("outcome", "authenticated")); got != 2 {
		t.Fatalf("expected 2 authenticated outcomes, got %d", got)
	}
	if got := collectSum(t, reader, "auth.refresh.attempts", attribute.String("status", "reissued")); got != 1 {
		t.Fatalf("expected 1 reissue, got %d", got)
	}
	if got := collectSum(t, reader, "auth.login.attempts", attribute.String("provider", "password")); got != 1 {
		t.Fatalf("expected 1 password login, got %d", got)
	}
	if got := collectSum(t, reader, "auth.session.revocations", attribute.String("reason", "admin")); got != 3 {
		t.Fatalf("expected 3 admin revocations, got %d", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var metrics *Metrics
	metrics.RecordAuthOutcome(context.Background(), "authenticated")
	metrics.RecordRefresh(context.Background(), "failed")
	metrics.RecordLogin(context.Background(), "google", "failed")
	metrics.RecordRevocation(context.Background(), "logout", 1)
}
