// Package otel exposes goCampus engine metrics through OpenTelemetry observable
// instruments. Instruments are registered on a caller-supplied metric.Meter and read
// the engine snapshot on each collection; the session check histogram is published as
// a cumulative bucket gauge keyed by an "le" attribute.
package otel
