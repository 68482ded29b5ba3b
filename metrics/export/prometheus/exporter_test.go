package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goCampus "github.com/MrEthical07/goCampus"
)

type fakeSource struct {
	snapshot goCampus.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goCampus.MetricsSnapshot { return f.snapshot }
func (f fakeSource) EventsDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goCampus.MetricsSnapshot{
			Counters:   map[goCampus.MetricID]uint64{},
			Histograms: map[goCampus.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goCampus.MetricsSnapshot{
			Counters: map[goCampus.MetricID]uint64{
				goCampus.MetricLoginSuccess: 7,
				goCampus.MetricRedirect:     3,
			},
			Histograms: map[goCampus.MetricID][]uint64{
				goCampus.MetricSessionCheckLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"gocampus_login_success_total 7",
		"gocampus_redirect_total 3",
		"gocampus_unknown_role_total 0",
		"gocampus_session_check_latency_seconds_bucket{le=\"0.05\"} 1",
		"gocampus_session_check_latency_seconds_bucket{le=\"+Inf\"} 36",
		"gocampus_session_check_latency_seconds_count 36",
		"gocampus_events_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsDisabledHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goCampus.MetricsSnapshot{
			Counters:   map[goCampus.MetricID]uint64{goCampus.MetricLogout: 1},
			Histograms: map[goCampus.MetricID][]uint64{},
		},
	})

	if out := exp.Render(); strings.Contains(out, "latency") {
		t.Fatalf("histogram must be omitted when latency is disabled, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goCampus.MetricsSnapshot{
			Counters:   map[goCampus.MetricID]uint64{goCampus.MetricLoginSuccess: 1},
			Histograms: map[goCampus.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goCampus.MetricsSnapshot{
			Counters: map[goCampus.MetricID]uint64{
				goCampus.MetricLoginSuccess:        1000,
				goCampus.MetricLoginFailure:        40,
				goCampus.MetricSessionCheckSuccess: 800,
				goCampus.MetricRedirect:            1200,
			},
			Histograms: map[goCampus.MetricID][]uint64{
				goCampus.MetricSessionCheckLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
