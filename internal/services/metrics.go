package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "onboarding-platform/backend/internal/services"

type serviceMetrics struct {
	replaces  metric.Int64Counter
	batchSize metric.Int64Histogram
	library   metric.Int64Counter
}

func newServiceMetrics(mp metric.MeterProvider) (*serviceMetrics, error) {
	meter := mp.Meter(meterName)

	replaces, err := meter.Int64Counter("onboarding.template_tasks.replace",
		metric.WithDescription("Batch task sequence replacements by outcome"))
	if err != nil {
		return nil, err
	}
	batchSize, err := meter.Int64Histogram("onboarding.template_tasks.size",
		metric.WithDescription("Number of tasks in a saved template sequence"))
	if err != nil {
		return nil, err
	}
	library, err := meter.Int64Counter("onboarding.task_templates.mutation",
		metric.WithDescription("Task library writes by operation"))
	if err != nil {
		return nil, err
	}
	return &serviceMetrics{replaces: replaces, batchSize: batchSize, library: library}, nil
}

func (m *serviceMetrics) recordReplace(ctx context.Context, outcome string, size int) {
	m.replaces.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == "ok" {
		m.batchSize.Record(ctx, int64(size))
	}
}

func (m *serviceMetrics) recordLibrary(ctx context.Context, op string) {
	m.library.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
