package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// meter records per-route request counts and latencies.
type meter struct {
	set *metrics.Set
}

func newMeter(reg Registry, bus EventBus) *meter {
	set := metrics.NewSet()
	set.NewGauge("phonebook_contacts", func() float64 { return float64(reg.Count()) })
	set.NewGauge("phonebook_sse_subscribers", func() float64 { return float64(bus.SubscriberCount()) })
	return &meter{set: set}
}

func (m *meter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := `{method="` + r.Method + `",path="` + pattern + `",status="` + strconv.Itoa(status) + `"}`
		m.set.GetOrCreateCounter("http_requests_total" + labels).Inc()
		m.set.GetOrCreateHistogram("http_request_duration_seconds" + labels).UpdateDuration(start)
	})
}

func (m *meter) writePrometheus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}
