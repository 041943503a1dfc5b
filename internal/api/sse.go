package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// sseHeartbeat keeps idle connections from being reaped by proxies.
var sseHeartbeat = 25 * time.Second

// sseEvents streams the directory: a snapshot event with every contact, then
// one created/updated/deleted event per change. Each event carries the bus
// sequence number as its id; the snapshot's id is the last sequence it covers.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := h.bus.Subscribe()
	defer sub.Close()
	slog.Debug("sse: subscriber connected", "id", sub.ID(), "remote", r.RemoteAddr)

	sse := &sseWriter{w: w, f: flusher}
	sse.event("snapshot", h.bus.Seq(), h.reg.List())

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			sse.event(string(ev.Change.Kind), ev.Seq, ev.Change.Contact)
		case <-heartbeat.C:
			sse.comment("ping")
		case <-r.Context().Done():
			slog.Debug("sse: subscriber gone", "id", sub.ID(), "dropped", sub.Dropped())
			return
		}
		if sse.err != nil {
			return
		}
	}
}

// sseWriter remembers the first write error so the loop can stop.
type sseWriter struct {
	w   http.ResponseWriter
	f   http.Flusher
	err error
}

func (s *sseWriter) event(name string, id uint64, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("sse: encode failed", "event", name, "err", err)
		return
	}
	s.write("event: %s\nid: %d\ndata: %s\n\n", name, id, data)
}

func (s *sseWriter) comment(text string) {
	s.write(": %s\n\n", text)
}

func (s *sseWriter) write(format string, args ...any) {
	if s.err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		s.err = err
		return
	}
	s.f.Flush()
}
