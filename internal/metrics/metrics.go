// Package metrics instruments the event store ports with Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sdbip/agiler-write-model/internal/es"
)

var defaultBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// Metrics holds the collectors for store operations.
type Metrics struct {
	publishDuration      *prometheus.HistogramVec
	readDuration         *prometheus.HistogramVec
	eventsAppended       *prometheus.CounterVec
	concurrencyConflicts *prometheus.CounterVec
	errors               *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agiler_store_publish_duration_seconds",
			Help:    "Event store append latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"operation"}),

		readDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agiler_store_read_duration_seconds",
			Help:    "Entity history read latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"operation"}),

		eventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agiler_store_events_appended_total",
			Help: "Total number of events appended",
		}, []string{"entity_type"}),

		concurrencyConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agiler_store_concurrency_conflicts_total",
			Help: "Total number of optimistic concurrency failures",
		}, []string{"operation"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agiler_store_errors_total",
			Help: "Total number of failed store operations, conflicts excluded",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		m.publishDuration,
		m.readDuration,
		m.eventsAppended,
		m.concurrencyConflicts,
		m.errors,
	)
	return m
}

func (m *Metrics) record(op string, err error) {
	switch {
	case err == nil:
	case es.IsConcurrencyConflict(err):
		m.concurrencyConflicts.WithLabelValues(op).Inc()
	default:
		m.errors.WithLabelValues(op).Inc()
	}
}

// Publisher wraps next with metrics.
func (m *Metrics) Publisher(next es.Publisher) es.Publisher {
	return &publisher{next: next, m: m}
}

// HistoryReader wraps next with metrics.
func (m *Metrics) HistoryReader(next es.HistoryReader) es.HistoryReader {
	return &historyReader{next: next, m: m}
}

type publisher struct {
	next es.Publisher
	m    *Metrics
}

func (p *publisher) Publish(ctx context.Context, event es.UnpublishedEvent, entity es.CanonicalEntityID, actor string) error {
	start := time.Now()
	err := p.next.Publish(ctx, event, entity, actor)
	p.m.publishDuration.WithLabelValues("publish").Observe(time.Since(start).Seconds())
	p.m.record("publish", err)
	if err == nil {
		p.m.eventsAppended.WithLabelValues(entity.Type()).Inc()
	}
	return err
}

func (p *publisher) PublishChanges(ctx context.Context, actor string, entities ...es.Entity) error {
	start := time.Now()
	err := p.next.PublishChanges(ctx, actor, entities...)
	p.m.publishDuration.WithLabelValues("publish_changes").Observe(time.Since(start).Seconds())
	p.m.record("publish_changes", err)
	if err == nil {
		for _, e := range entities {
			if n := len(e.UnpublishedEvents()); n > 0 {
				p.m.eventsAppended.WithLabelValues(e.ID().Type()).Add(float64(n))
			}
		}
	}
	return err
}

type historyReader struct {
	next es.HistoryReader
	m    *Metrics
}

func (r *historyReader) HistoryFor(ctx context.Context, id es.CanonicalEntityID) (es.EntityHistory, bool, error) {
	start := time.Now()
	h, found, err := r.next.HistoryFor(ctx, id)
	r.m.readDuration.WithLabelValues("history_for").Observe(time.Since(start).Seconds())
	r.m.record("history_for", err)
	return h, found, err
}

func (r *historyReader) History(ctx context.Context, id string) (es.EntityHistory, bool, error) {
	start := time.Now()
	h, found, err := r.next.History(ctx, id)
	r.m.readDuration.WithLabelValues("history").Observe(time.Since(start).Seconds())
	r.m.record("history", err)
	return h, found, err
}
