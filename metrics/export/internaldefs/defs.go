package internaldefs

import (
	goCampus "github.com/MrEthical07/goCampus"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   goCampus.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goCampus.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goCampus.MetricLoginSuccess, Name: "gocampus_login_success_total", Help: "Successful logins."},
	{ID: goCampus.MetricLoginFailure, Name: "gocampus_login_failure_total", Help: "Rejected or unpersisted logins."},
	{ID: goCampus.MetricSessionCheckSuccess, Name: "gocampus_session_check_success_total", Help: "Stored tokens confirmed by the backend."},
	{ID: goCampus.MetricSessionCheckFailure, Name: "gocampus_session_check_failure_total", Help: "Stored tokens dropped after a failed check."},
	{ID: goCampus.MetricLogout, Name: "gocampus_logout_total", Help: "Explicit and implicit logouts."},
	{ID: goCampus.MetricRedirect, Name: "gocampus_redirect_total", Help: "Redirects issued to the router."},
	{ID: goCampus.MetricUnknownRole, Name: "gocampus_unknown_role_total", Help: "Sessions with a role that has no landing screen."},
	{ID: goCampus.MetricStorageFailure, Name: "gocampus_storage_failure_total", Help: "Recovered credential storage errors."},
	{ID: goCampus.MetricPushRegistered, Name: "gocampus_push_registered_total", Help: "Accepted push token registrations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goCampus.MetricSessionCheckLatency, Name: "gocampus_session_check_latency_seconds", Help: "Session check round-trip latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's latency buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"10",
	"+Inf",
}

// HistogramBoundsSeconds mirrors HistogramBounds without the implicit +Inf bucket.
var HistogramBoundsSeconds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 10}

// NormalizeBuckets copies raw into a fixed eight-bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
