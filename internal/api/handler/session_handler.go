package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/blaisecz/smart-sleep/internal/api/validation"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/service"
	"github.com/blaisecz/smart-sleep/pkg/pagination"
	"github.com/blaisecz/smart-sleep/pkg/problem"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// DefaultKeepAlive is the interval of SSE comments sent on an idle stream.
	DefaultKeepAlive = 15 * time.Second
)

type SessionHandler struct {
	service   service.SessionService
	keepAlive time.Duration
	logger    *zap.Logger
}

func NewSessionHandler(service service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{service: service, keepAlive: DefaultKeepAlive, logger: logger}
}

// Start handles POST /v1/users/{userId}/sessions
// @Summary Start tracking
// @Description Start recording a night. With target_wake_at the smart alarm fires during the first light sleep inside the pre-wake window, or at the target at the latest.
// @Tags sessions
// @Accept json
// @Produce json
// @Param userId path string true "User UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Param request body domain.StartSessionRequest true "Session options"
// @Success 201 {object} domain.SessionResponse "Tracking started"
// @Failure 400 {object} problem.Problem "Invalid request body or parameters"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 409 {object} problem.Problem "A session is already being tracked"
// @Failure 422 {object} problem.Problem "Invalid smart alarm configuration"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions [post]
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	var req domain.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w, r)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w, r)
		return
	}

	session, err := h.service.Start(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, r, err, "User not found", "Failed to start tracking")
		return
	}

	writeJSON(w, http.StatusCreated, session.ToResponse())
}

// Active handles GET /v1/users/{userId}/sessions/active
// @Summary Live tracking state
// @Description Snapshot of the user's tracker: session, reading counts, stages classified so far and alarm state. Idle when nothing is tracked.
// @Tags sessions
// @Produce json
// @Param userId path string true "User UUID" format(uuid)
// @Success 200 {object} domain.TrackerSnapshot
// @Failure 400 {object} problem.Problem "Invalid user ID"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions/active [get]
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	snap, err := h.service.Active(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "User not found", "Failed to read tracking state")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Stream handles GET /v1/users/{userId}/sessions/active/stream
// @Summary Stream live tracking state
// @Description Server-sent events carrying a tracker snapshot after every state change. Event name is "snapshot", the event ID is the snapshot version.
// @Tags sessions
// @Produce text/event-stream
// @Param userId path string true "User UUID" format(uuid)
// @Success 200 {object} domain.TrackerSnapshot "Stream of snapshots"
// @Failure 400 {object} problem.Problem "Invalid user ID"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 503 {object} problem.Problem "Shutting down"
// @Router /users/{userId}/sessions/active/stream [get]
func (h *SessionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	updates, cancel, err := h.service.Follow(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "User not found", "Failed to follow tracking state")
		return
	}
	defer cancel()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("response does not support streaming", zap.Error(err))
		return
	}

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.logger.Error("failed to encode snapshot", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Version, data); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// RecordSamples handles POST /v1/users/{userId}/sessions/active/samples
// @Summary Upload sensor readings
// @Description Append movement and sound readings to the active session. Readings are dropped, not rejected, when nothing is tracked. Values are clamped to their channel's range.
// @Tags sessions
// @Accept json
// @Produce json
// @Param userId path string true "User UUID" format(uuid)
// @Param request body domain.RecordSamplesRequest true "Readings"
// @Success 202 {object} domain.RecordSamplesResponse
// @Failure 400 {object} problem.Problem "Invalid request body"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 422 {object} problem.Problem "Invalid readings"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions/active/samples [post]
func (h *SessionHandler) RecordSamples(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	var req domain.RecordSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w, r)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w, r)
		return
	}

	resp, err := h.service.RecordSamples(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, r, err, "User not found", "Failed to record samples")
		return
	}

	writeJSON(w, http.StatusAccepted, resp)
}

// Stop handles POST /v1/users/{userId}/sessions/active/stop
// @Summary Stop tracking
// @Description Finalize the active session: estimate stages over the whole night, compute metrics and mirror it to the health and cloud stores in the background.
// @Tags sessions
// @Produce json
// @Param userId path string true "User UUID" format(uuid)
// @Success 200 {object} domain.SessionDetailResponse "Finalized session"
// @Failure 400 {object} problem.Problem "Invalid user ID"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 409 {object} problem.Problem "No session is being tracked"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions/active/stop [post]
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	detail, err := h.service.Stop(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "User not found", "Failed to stop tracking")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// List handles GET /v1/users/{userId}/sessions
// @Summary List sessions
// @Description Fetch finalized sessions, newest first. Filter by start time.
// @Tags sessions
// @Produce json
// @Param userId path string true "User UUID" format(uuid)
// @Param from query string false "Start of date range (RFC3339)" format(date-time) example(2024-01-01T00:00:00Z)
// @Param to query string false "End of date range (RFC3339)" format(date-time) example(2024-01-31T23:59:59Z)
// @Param limit query integer false "Results per page (1-100)" default(20) minimum(1) maximum(100)
// @Param cursor query string false "Cursor from previous response's next_cursor"
// @Success 200 {object} domain.SessionListResponse "Sessions with pagination"
// @Failure 400 {object} problem.Problem "Invalid user ID"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 422 {object} problem.Problem "Invalid query parameters"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions [get]
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	filter, fieldErrors := parseListFilter(r)
	if fieldErrors != nil {
		problem.ValidationError("Invalid query parameters", fieldErrors).Write(w, r)
		return
	}

	response, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		h.writeError(w, r, err, "User not found", "Failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /v1/users/{userId}/sessions/{sessionId}
// @Summary Session report
// @Description Session with its stage windows and metrics, including the informational quality score.
// @Tags sessions
// @Produce json
// @Param userId path string true "User UUID" format(uuid)
// @Param sessionId path string true "Session UUID" format(uuid)
// @Success 200 {object} domain.SessionDetailResponse
// @Failure 400 {object} problem.Problem "Invalid ID"
// @Failure 404 {object} problem.Problem "User or session not found"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions/{sessionId} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := parseSessionPath(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), userID, sessionID)
	if err != nil {
		h.writeError(w, r, err, "Session not found", "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Sync handles POST /v1/users/{userId}/sessions/{sessionId}/sync
// @Summary Mirror a session again
// @Description Push a finalized session to the health and cloud stores and record the outcome. Transient failures are retried with backoff, honouring Retry-After.
// @Tags sessions
// @Produce json
// @Param userId path string true "User UUID" format(uuid)
// @Param sessionId path string true "Session UUID" format(uuid)
// @Success 200 {object} domain.SyncReport
// @Failure 400 {object} problem.Problem "Invalid ID"
// @Failure 404 {object} problem.Problem "User or session not found"
// @Failure 409 {object} problem.Problem "Session is still being tracked"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions/{sessionId}/sync [post]
func (h *SessionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := parseSessionPath(w, r)
	if !ok {
		return
	}

	report, err := h.service.Sync(r.Context(), userID, sessionID)
	if err != nil {
		h.writeError(w, r, err, "Session not found", "Failed to sync session")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Export handles GET /v1/users/{userId}/sessions/export
// @Summary Export sessions
// @Description XLSX workbook with one row per session and one row per stage window, for sessions that ended in [from, to).
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param userId path string true "User UUID" format(uuid)
// @Param from query string true "Start of range (RFC3339)" format(date-time)
// @Param to query string true "End of range (RFC3339)" format(date-time)
// @Success 200 {file} file "Workbook"
// @Failure 400 {object} problem.Problem "Invalid range"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 422 {object} problem.Problem "Invalid query parameters"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sessions/export [get]
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	var fieldErrors []problem.FieldError
	from, ok := parseTimeParam(r, "from", &fieldErrors)
	to, ok2 := parseTimeParam(r, "to", &fieldErrors)
	if !ok || !ok2 {
		problem.ValidationError("Invalid query parameters", fieldErrors).Write(w, r)
		return
	}

	data, err := h.service.Export(r.Context(), userID, from, to)
	if err != nil {
		h.writeError(w, r, err, "User not found", "Failed to export sessions")
		return
	}

	filename := fmt.Sprintf("sleep-%s-%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeError maps service errors to problem responses.
func (h *SessionHandler) writeError(w http.ResponseWriter, r *http.Request, err error, notFound, internal string) {
	var p *problem.Problem
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p = problem.NotFound(notFound)
	case errors.Is(err, domain.ErrInvalidAlarmConfig):
		p = problem.InvalidAlarm(err.Error())
	case errors.Is(err, domain.ErrSessionActive):
		p = problem.Conflict("A sleep session is already being tracked")
	case errors.Is(err, domain.ErrNoActiveSession):
		p = problem.Conflict("No sleep session is being tracked")
	case errors.Is(err, domain.ErrConflict):
		p = problem.Conflict(err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		p = problem.BadRequest(err.Error())
	case errors.Is(err, domain.ErrTrackerClosed):
		p = problem.ServiceUnavailable("Server is shutting down")
	default:
		h.logger.Error(internal, zap.Error(err), zap.String("path", r.URL.Path))
		p = problem.InternalError(internal)
	}
	p.Write(w, r)
}

func parseSessionPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		problem.BadRequest("Invalid session ID format").Write(w, r)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

func parseListFilter(r *http.Request) (domain.SessionFilter, []problem.FieldError) {
	var filter domain.SessionFilter
	var fieldErrors []problem.FieldError

	// Parse 'from' parameter
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "from",
				Message: "must be a valid RFC3339 timestamp",
			})
		} else {
			filter.From = &from
		}
	}

	// Parse 'to' parameter
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "to",
				Message: "must be a valid RFC3339 timestamp",
			})
		} else {
			filter.To = &to
		}
	}

	filter.Limit = queryInt(r, "limit", 0, 1, pagination.MaxLimit, &fieldErrors)

	// Parse 'cursor' parameter
	filter.Cursor = r.URL.Query().Get("cursor")
	if _, err := pagination.DecodeCursor(filter.Cursor); err != nil {
		fieldErrors = append(fieldErrors, problem.FieldError{
			Field:   "cursor",
			Message: "is not a valid cursor",
		})
	}

	if len(fieldErrors) > 0 {
		return filter, fieldErrors
	}

	return filter, nil
}

func parseTimeParam(r *http.Request, name string, fieldErrors *[]problem.FieldError) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		*fieldErrors = append(*fieldErrors, problem.FieldError{Field: name, Message: "is required"})
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		*fieldErrors = append(*fieldErrors, problem.FieldError{Field: name, Message: "must be a valid RFC3339 timestamp"})
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
