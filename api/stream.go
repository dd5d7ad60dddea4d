package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lunarlog/cycle-engine/cycle"
)

// StreamCycles pushes a Server-Sent Event with the full cycle list on
// connect and after every change. ?from=&to= narrows it to a range. The
// stream ends when the client disconnects or the request context is
// cancelled.
func (h *Handler) StreamCycles(w http.ResponseWriter, r *http.Request) {
	from, to, ranged, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	// Long-lived response: lift the server write timeout for this request.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug().Err(err).Msg("cycle stream keeps server write timeout")
	}

	var sub *cycle.Subscription
	if ranged {
		sub = h.Repo.ObserveRange(r.Context(), from, to)
	} else {
		sub = h.Repo.Observe(r.Context())
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	seq := 0
	for snapshot := range sub.C {
		data, err := json.Marshal(toCycleDTOs(snapshot))
		if err != nil {
			log.Error().Err(err).Msg("encode cycle snapshot")
			return
		}
		seq++
		if _, err := fmt.Fprintf(w, "id: %d\nevent: cycles\ndata: %s\n\n", seq, data); err != nil {
			return
		}
		flusher.Flush()
	}

	if err := sub.Err(); err != nil {
		log.Error().Err(err).Msg("cycle stream ended")
		fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
		flusher.Flush()
	}
}
