/*
handlers.go - HTTP API handlers for the cycle engine

ENDPOINTS:
  Cycles:
    GET    /api/cycles                   List all (newest first); ?from=&to= for a range
    POST   /api/cycles                   Insert (id 0 = new, existing id = replace)
    PUT    /api/cycles/{id}              Update (unknown id is a no-op, still 200)
    GET    /api/cycles/by-date/{date}    Cycle starting on date
    GET    /api/cycles/stream            Server-Sent Events of live snapshots

  Periods:
    POST   /api/periods                  Log a finished period
    POST   /api/periods/toggle           Start / end / resume for today (?date=)

  Insights:
    GET    /api/summary                  Home summary (?date=)
    GET    /api/stats                    History statistics + anomalies

  Data management:
    GET    /api/backup?format=json|yaml  Export everything
    POST   /api/restore?format=json|yaml Replace everything from a backup

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - stream.go: Live snapshot streaming
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/lunarlog/cycle-engine/backup"
	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/prediction"
)

// maxRestoreBytes bounds the restore request body.
const maxRestoreBytes = 8 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Repo   *cycle.Repository
	Health Pinger

	// Clock returns the current time; "today" is derived from it.
	Clock func() time.Time

	validate *validator.Validate
}

// NewHandler creates a handler over repo. health may be nil.
func NewHandler(repo *cycle.Repository, health Pinger) *Handler {
	return &Handler{
		Repo:     repo,
		Health:   health,
		Clock:    time.Now,
		validate: validator.New(),
	}
}

func (h *Handler) today() cycle.Day {
	return cycle.DayFromTime(h.Clock())
}

// =============================================================================
// CYCLE HANDLERS
// =============================================================================

// ListCycles returns all cycles, or those overlapping ?from=&to=.
func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	from, to, ranged, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	var cycles []cycle.Cycle
	if ranged {
		cycles, err = h.Repo.ListInRange(r.Context(), from, to)
	} else {
		cycles, err = h.Repo.ListAll(r.Context())
	}
	if err != nil {
		writeErrorFor(w, "Failed to list cycles", err)
		return
	}

	writeJSON(w, http.StatusOK, toCycleDTOs(cycles))
}

// CreateCycle inserts a cycle.
func (h *Handler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	var req CycleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	c, err := req.toCycle()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle", err)
		return
	}

	id, err := h.Repo.Insert(r.Context(), c)
	if err != nil {
		writeErrorFor(w, "Failed to save cycle", err)
		return
	}
	c.ID = id

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id, Cycle: toCycleDTO(c)})
}

// UpdateCycle overwrites the cycle with the path id.
func (h *Handler) UpdateCycle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid cycle id", err)
		return
	}

	var req CycleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	req.ID = id

	c, err := req.toCycle()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle", err)
		return
	}

	if err := h.Repo.Update(r.Context(), c); err != nil {
		writeErrorFor(w, "Failed to update cycle", err)
		return
	}

	writeJSON(w, http.StatusOK, toCycleDTO(c))
}

// GetCycleForDate returns the cycle that starts on {date}.
func (h *Handler) GetCycleForDate(w http.ResponseWriter, r *http.Request) {
	day, err := cycle.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	c, err := h.Repo.CycleForDate(r.Context(), day)
	if err != nil {
		writeErrorFor(w, "Failed to load cycle", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "No cycle starts on "+day.String(), nil)
		return
	}

	writeJSON(w, http.StatusOK, toCycleDTO(*c))
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// LogPeriod records a finished period.
func (h *Handler) LogPeriod(w http.ResponseWriter, r *http.Request) {
	var req LogPeriodRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	start, err := cycle.ParseDay(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := cycle.ParseDay(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}

	c, err := h.Repo.LogPeriod(r.Context(), start, end)
	if err != nil {
		writeErrorFor(w, "Failed to save period", err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: c.ID, Cycle: toCycleDTO(c)})
}

// TogglePeriod starts, ends or resumes the period for today (or ?date=).
func (h *Handler) TogglePeriod(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	out, err := h.Repo.TogglePeriod(r.Context(), day)
	if err != nil {
		writeErrorFor(w, "Failed to toggle period", err)
		return
	}

	writeJSON(w, http.StatusOK, ToggleResponse{
		Result:  string(out.Result),
		Message: out.Result.Message(),
		Cycle:   toCycleDTO(out.Cycle),
	})
}

// =============================================================================
// INSIGHT HANDLERS
// =============================================================================

// GetSummary returns the home summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	cycles, err := h.Repo.ListAll(r.Context())
	if err != nil {
		writeErrorFor(w, "Failed to load cycles", err)
		return
	}

	writeJSON(w, http.StatusOK, NewSummaryDTO(prediction.Summarize(cycles, day)))
}

// GetStats returns history statistics.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Repo.ListAll(r.Context())
	if err != nil {
		writeErrorFor(w, "Failed to load cycles", err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsDTO(prediction.ComputeStats(cycles), prediction.DetectAnomalies(cycles)))
}

// =============================================================================
// DATA MANAGEMENT HANDLERS
// =============================================================================

// ExportBackup streams a backup document.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	format, err := backup.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}

	data, err := backup.Export(r.Context(), h.Repo, format, h.Clock())
	if err != nil {
		writeErrorFor(w, "Failed to export backup", err)
		return
	}

	filename := fmt.Sprintf("lunarlog-%s.%s", h.today(), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// RestoreBackup replaces all cycles with the uploaded backup.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	format, err := backup.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRestoreBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read backup", err)
		return
	}

	n, err := backup.Import(r.Context(), h.Repo.Store(), data, format)
	if err != nil {
		writeErrorFor(w, "Failed to restore backup", err)
		return
	}

	log.Info().Int("cycles", n).Str("format", string(format)).Msg("backup restored")
	writeJSON(w, http.StatusOK, RestoreResponse{Restored: n})
}

// Healthz reports storage health.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Storage unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) dayParam(r *http.Request) (cycle.Day, error) {
	if s := r.URL.Query().Get("date"); s != "" {
		return cycle.ParseDay(s)
	}
	return h.today(), nil
}

// parseRange reads ?from=&to=. Both or neither must be present.
func parseRange(r *http.Request) (from, to cycle.Day, ok bool, err error) {
	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr == "" && toStr == "" {
		return 0, 0, false, nil
	}
	if fromStr == "" || toStr == "" {
		return 0, 0, false, errors.New("both from and to are required")
	}
	if from, err = cycle.ParseDay(fromStr); err != nil {
		return 0, 0, false, err
	}
	if to, err = cycle.ParseDay(toStr); err != nil {
		return 0, 0, false, err
	}
	if to < from {
		return 0, 0, false, &cycle.InvalidPeriodError{Start: from, End: to}
	}
	return from, to, true, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeErrorFor picks the status from the error kind.
func writeErrorFor(w http.ResponseWriter, message string, err error) {
	switch {
	case cycle.IsClientError(err),
		errors.Is(err, backup.ErrUnknownFormat),
		errors.Is(err, backup.ErrUnsupportedVersion):
		writeError(w, http.StatusBadRequest, message, err)
	case cycle.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
