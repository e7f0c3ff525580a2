package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agora-forum/agora/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	authReqDuration          metric.Float64Histogram
	accessValidationCounter  metric.Int64Counter
	csrfValidationCounter    metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	rateLimitRetryAfter      metric.Float64Histogram
	middlewareEventCounter   metric.Int64Counter
	refreshReuseCounter      metric.Int64Counter
	sessionsRevokedCount     metric.Float64Histogram
	userLifecycleCounter     metric.Int64Counter
	postOpDuration           metric.Float64Histogram
	dbStartupEventCounter    metric.Int64Counter
	dbStartupDuration        metric.Float64Histogram
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("agora")
	authReqDuration, err := meter.Float64Histogram("auth.request.duration", metric.WithUnit("s"), metric.WithDescription("Duration of auth endpoint requests in seconds"))
	if err != nil {
		return nil, err
	}
	accessValidationCounter, err := meter.Int64Counter("auth.access_token.validation.events")
	if err != nil {
		return nil, err
	}
	csrfValidationCounter, err := meter.Int64Counter("security.csrf.validation.events")
	if err != nil {
		return nil, err
	}
	rateLimitDecisionCounter, err := meter.Int64Counter("http.rate_limit.decisions")
	if err != nil {
		return nil, err
	}
	rateLimitRetryAfter, err := meter.Float64Histogram(
		"http.rate_limit.retry_after",
		metric.WithUnit("s"),
		metric.WithDescription("Retry-after duration in seconds for throttled requests"),
	)
	if err != nil {
		return nil, err
	}
	middlewareEventCounter, err := meter.Int64Counter("http.middleware.validation.events")
	if err != nil {
		return nil, err
	}
	refreshReuseCounter, err := meter.Int64Counter(
		"auth.refresh.reuse_detected",
		metric.WithDescription("Spent refresh credential presentations that triggered session revocation"),
	)
	if err != nil {
		return nil, err
	}
	sessionsRevokedCount, err := meter.Float64Histogram(
		"session.revoked.count",
		metric.WithDescription("Number of sessions revoked per revocation event"),
	)
	if err != nil {
		return nil, err
	}
	userLifecycleCounter, err := meter.Int64Counter("user.lifecycle.events")
	if err != nil {
		return nil, err
	}
	postOpDuration, err := meter.Float64Histogram(
		"forum.post.operation.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of post write operations in seconds"),
	)
	if err != nil {
		return nil, err
	}
	dbStartupEventCounter, err := meter.Int64Counter("database.startup.events")
	if err != nil {
		return nil, err
	}
	dbStartupDuration, err := meter.Float64Histogram(
		"database.startup.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of database startup phases in seconds"),
	)
	if err != nil {
		return nil, err
	}
	healthCheckResultCounter, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	healthCheckDuration, err := meter.Float64Histogram(
		"health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds"),
	)
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authReqDuration:          authReqDuration,
		accessValidationCounter:  accessValidationCounter,
		csrfValidationCounter:    csrfValidationCounter,
		rateLimitDecisionCounter: rateLimitDecisionCounter,
		rateLimitRetryAfter:      rateLimitRetryAfter,
		middlewareEventCounter:   middlewareEventCounter,
		refreshReuseCounter:      refreshReuseCounter,
		sessionsRevokedCount:     sessionsRevokedCount,
		userLifecycleCounter:     userLifecycleCounter,
		postOpDuration:           postOpDuration,
		dbStartupEventCounter:    dbStartupEventCounter,
		dbStartupDuration:        dbStartupDuration,
		healthCheckResultCounter: healthCheckResultCounter,
		healthCheckDuration:      healthCheckDuration,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordAccessValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.accessValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordCSRFValidation(ctx context.Context, outcome, pathGroup string) {
	m := current()
	if m == nil {
		return
	}
	m.csrfValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("path_group", pathGroup),
	))
}

// RecordRateLimitDecision also records the retry-after histogram for
// rejected requests, since the two always move together.
func RecordRateLimitDecision(ctx context.Context, class, outcome string, retryAfter time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("class", class),
		attribute.String("outcome", outcome),
	))
	if outcome == "rejected" {
		m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
			attribute.String("class", class),
		))
	}
}

func RecordMiddlewareValidationEvent(ctx context.Context, component, event string) {
	m := current()
	if m == nil {
		return
	}
	m.middlewareEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("event", event),
	))
}

func RecordRefreshReuseDetected(ctx context.Context) {
	m := current()
	if m == nil {
		return
	}
	m.refreshReuseCounter.Add(ctx, 1)
}

func RecordSessionsRevoked(ctx context.Context, reason string, count int64) {
	m := current()
	if m == nil {
		return
	}
	m.sessionsRevokedCount.Record(ctx, float64(count), metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func RecordUserRegistered(ctx context.Context) {
	recordUserLifecycle(ctx, "registered")
}

func RecordUserWithdrawn(ctx context.Context) {
	recordUserLifecycle(ctx, "withdrawn")
}

func recordUserLifecycle(ctx context.Context, event string) {
	m := current()
	if m == nil {
		return
	}
	m.userLifecycleCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
	))
}

func RecordPostOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.postOpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordDatabaseStartupEvent(ctx context.Context, phase, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.dbStartupEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("outcome", outcome),
	))
}

func RecordDatabaseStartupDuration(ctx context.Context, phase string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.dbStartupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
	))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("check", check),
	))
}
