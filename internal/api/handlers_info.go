package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brianhealey/phonebook/internal/models"
)

// getInfo reports the number of contacts. Plain text unless the client asks for JSON.
func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	info := models.Info{
		Count:    h.reg.Count(),
		Time:     h.reg.Now(),
		Hostname: h.ident.Hostname,
		Version:  h.ident.Version,
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, info)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Phonebook has info for %d people\n%s\n", info.Count, info.Time.Format(time.RFC1123))
}
