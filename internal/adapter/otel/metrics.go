package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "karuna"

// Cache layers recorded as the "cache.layer" attribute.
const (
	LayerHelper   = "helper"
	LayerResponse = "response"
)

// Metrics holds all Karuna metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	CacheHits     metric.Int64Counter
	CacheMisses   metric.Int64Counter
	FillDuration  metric.Float64Histogram
	LLMRequests   metric.Int64Counter
	LLMRejections metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.CacheHits, err = meter.Int64Counter("karuna.cache.hits",
		metric.WithDescription("Cache lookups served from memory"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("karuna.cache.misses",
		metric.WithDescription("Cache lookups that fell through to the source"))
	if err != nil {
		return nil, err
	}

	m.FillDuration, err = meter.Float64Histogram("karuna.cache.fetch.duration_seconds",
		metric.WithDescription("Time spent producing a value on a cache miss"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.LLMRequests, err = meter.Int64Counter("karuna.llm.requests",
		metric.WithDescription("Generative model calls"))
	if err != nil {
		return nil, err
	}

	m.LLMRejections, err = meter.Int64Counter("karuna.llm.rejected",
		metric.WithDescription("Generative model calls rejected by the circuit breaker"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordLookup counts a cache hit or miss for the given layer.
func (m *Metrics) RecordLookup(ctx context.Context, layer string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache.layer", layer))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
		return
	}
	m.CacheMisses.Add(ctx, 1, attrs)
}

// RecordFill records how long a cache fill took and whether it failed.
func (m *Metrics) RecordFill(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FillDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("error", err != nil)))
}

// RecordLLMCall counts a generative model call by operation and outcome.
func (m *Metrics) RecordLLMCall(ctx context.Context, op string, rejected bool, err error) {
	if m == nil {
		return
	}
	if rejected {
		m.LLMRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("llm.op", op)))
		return
	}
	m.LLMRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("llm.op", op),
		attribute.Bool("error", err != nil),
	))
}
