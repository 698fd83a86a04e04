package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saintdannyyy/shelta/internal/realtime"
)

var streamableTables = map[string]bool{
	"properties":          true,
	"applications":        true,
	"maintenance_tickets": true,
	"rent_ledger_entries": true,
	"job_postings":        true,
	"loan_applications":   true,
}

// handleStreamChanges serves change notifications for one table as
// server-sent events. The subscription lives exactly as long as the request:
// when the client disconnects, the request context cancels and the feed
// subscription is closed with it.
func (s *Server) handleStreamChanges(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if !streamableTables[table] {
		writeError(w, http.StatusNotFound, "unknown_table")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	sub, err := s.feed.Subscribe(r.Context(), table)
	if err != nil {
		if errors.Is(err, realtime.ErrFeedDisabled) {
			writeError(w, http.StatusServiceUnavailable, "feed_disabled")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
