// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "chunkplan"

// Metrics holds the planner's Prometheus instruments on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	oracleRequests *prometheus.CounterVec
	oracleDuration *prometheus.HistogramVec
	cacheRequests  *prometheus.CounterVec
	plans          *prometheus.CounterVec
	planDuration   *prometheus.HistogramVec
}

// NewMetrics creates the instruments and registers them, together with the
// Go runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		oracleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_requests_total",
			Help:      "Judgment requests sent to the oracle backend.",
		}, []string{"query", "outcome"}),
		oracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_request_duration_seconds",
			Help:      "Latency of oracle judgment requests.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"query"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judgment_cache_requests_total",
			Help:      "Judgment cache lookups by result.",
		}, []string{"query", "result"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Planning passes by outcome.",
		}, []string{"operation", "outcome"}),
		planDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Duration of complete planning passes.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		m.oracleRequests, m.oracleDuration, m.cacheRequests, m.plans, m.planDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOracleCall records one judgment request.
func (m *Metrics) RecordOracleCall(query string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.oracleRequests.WithLabelValues(query, outcome(err)).Inc()
	m.oracleDuration.WithLabelValues(query).Observe(d.Seconds())
}

// RecordCacheOperation records a judgment cache hit or miss for query.
func (m *Metrics) RecordCacheOperation(hit bool, query string) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(query, result).Inc()
}

// RecordPlan records one planning pass.
func (m *Metrics) RecordPlan(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(operation, outcome(err)).Inc()
	if err == nil {
		m.planDuration.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// OracleCalls returns the number of oracle requests, optionally only those
// with the given outcome ("ok" or "error").
func (m *Metrics) OracleCalls(outcome string) float64 {
	return m.sum(namespace+"_oracle_requests_total", "outcome", outcome)
}

// PlansRecorded returns the number of planning passes with the given
// outcome, or all of them for "".
func (m *Metrics) PlansRecorded(outcome string) float64 {
	return m.sum(namespace+"_plans_total", "outcome", outcome)
}

// GetCacheHitRate returns hits / (hits + misses) across every query.
func (m *Metrics) GetCacheHitRate() float64 {
	name := namespace + "_judgment_cache_requests_total"
	hits := m.sum(name, "result", "hit")
	misses := m.sum(name, "result", "miss")
	if hits+misses == 0 {
		return 0
	}
	return hits / (hits + misses)
}

// GetAverageOracleDuration averages every oracle request latency.
func (m *Metrics) GetAverageOracleDuration() time.Duration {
	if m == nil {
		return 0
	}
	var sum float64
	var n uint64
	for _, metric := range m.family(namespace + "_oracle_request_duration_seconds") {
		sum += metric.GetHistogram().GetSampleSum()
		n += metric.GetHistogram().GetSampleCount()
	}
	if n == 0 {
		return 0
	}
	return time.Duration(sum / float64(n) * float64(time.Second))
}

// Summary returns the headline numbers for logging at the end of a run.
func (m *Metrics) Summary() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return map[string]any{
		"oracle_calls":        m.OracleCalls(""),
		"oracle_errors":       m.OracleCalls("error"),
		"avg_oracle_duration": m.GetAverageOracleDuration().String(),
		"cache_hit_rate":      m.GetCacheHitRate(),
		"plans":               m.PlansRecorded(""),
	}
}

// sum adds up a counter family, keeping only series whose label equals
// value when value is non-empty.
func (m *Metrics) sum(name, label, value string) float64 {
	if m == nil {
		return 0
	}
	var total float64
	for _, metric := range m.family(name) {
		if value != "" && labelValue(metric, label) != value {
			continue
		}
		total += metric.GetCounter().GetValue()
	}
	return total
}

func (m *Metrics) family(name string) []*dto.Metric {
	families, err := m.registry.Gather()
	if err != nil {
		return nil
	}
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()
		}
	}
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, l := range metric.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
