// Package prometheus renders goCampus engine metrics in Prometheus text exposition
// format. Counters are named gocampus_*_total and the session check histogram is
// gocampus_session_check_latency_seconds. Nothing is registered globally; callers mount
// Handler themselves.
package prometheus
