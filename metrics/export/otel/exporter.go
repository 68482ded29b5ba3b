package otel

import (
	"context"
	"errors"
	"fmt"

	goCampus "github.com/MrEthical07/goCampus"
	"github.com/MrEthical07/goCampus/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter observes on every collection. *goCampus.Engine
// implements it.
type Source interface {
	MetricsSnapshot() goCampus.MetricsSnapshot
	EventsDropped() uint64
}

type observedCounter struct {
	id         goCampus.MetricID
	instrument metric.Int64ObservableCounter
}

// Buckets are one gauge with an "le" attribute per bound.
type observedHistogram struct {
	id      goCampus.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes engine metrics as OpenTelemetry observable instruments.
type Exporter struct {
	source        Source
	registration  metric.Registration
	counters      []observedCounter
	histograms    []observedHistogram
	eventsDropped metric.Int64ObservableCounter
	bounds        []metric.ObserveOption
}

// NewExporter registers the engine's instruments on meter.
func NewExporter(meter metric.Meter, engine *goCampus.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource registers instruments reading from source.
func NewExporterFromSource(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
		bounds:     make([]metric.ObserveOption, 0, len(internaldefs.HistogramBounds)),
	}
	for _, le := range internaldefs.HistogramBounds {
		exporter.bounds = append(exporter.bounds, metric.WithAttributes(attribute.String("le", le)))
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2+1)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		name := def.Name + "_bucket"
		ins, err := meter.Int64ObservableGauge(name,
			metric.WithDescription("Cumulative histogram bucket count."),
		)
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
		}
		h.buckets = ins
		observables = append(observables, ins)

		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	dropped, err := meter.Int64ObservableCounter(
		"gocampus_events_dropped_total",
		metric.WithDescription("Session events dropped by the dispatcher."),
	)
	if err != nil {
		return nil, fmt.Errorf("create events dropped counter: %w", err)
	}
	exporter.eventsDropped = dropped
	observables = append(observables, dropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i := 0; i < len(cumulative); i++ {
			observer.ObserveInt64(h.buckets, int64(cumulative[i]), e.bounds[i])
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.eventsDropped, int64(e.source.EventsDropped()))
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
