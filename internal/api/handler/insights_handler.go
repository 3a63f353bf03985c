package handler

import (
	"errors"
	"net/http"

	"github.com/blaisecz/smart-sleep/internal/api/validation"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/llm"
	"github.com/blaisecz/smart-sleep/internal/service"
	"github.com/blaisecz/smart-sleep/pkg/problem"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxWindowDays bounds the analysis window of the chronotype and trends endpoints.
const maxWindowDays = 365

// InsightsHandler serves chronotype, trends and LLM insights.
type InsightsHandler struct {
	chronotypeService service.ChronotypeService
	trendsService     service.TrendsService
	insightsService   service.InsightsService
	logger            *zap.Logger
}

// NewInsightsHandler creates a new InsightsHandler.
func NewInsightsHandler(
	chronotypeService service.ChronotypeService,
	trendsService service.TrendsService,
	insightsService service.InsightsService,
	logger *zap.Logger,
) *InsightsHandler {
	return &InsightsHandler{
		chronotypeService: chronotypeService,
		trendsService:     trendsService,
		insightsService:   insightsService,
		logger:            logger,
	}
}

// GetChronotype handles GET /v1/users/{userId}/sleep/chronotype
// @Summary Get user chronotype
// @Description Classify the user's chronotype from the median mid-sleep time of tracked nights over a configurable window.
// @Tags sleep-insights
// @Produce json
// @Param userId path string true "User UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Param window_days query integer false "Number of days to analyze" default(30) minimum(1) maximum(365)
// @Param min_sessions query integer false "Minimum tracked nights required" default(7) minimum(1) maximum(100)
// @Success 200 {object} domain.ChronotypeResult "Chronotype analysis result"
// @Failure 400 {object} problem.Problem "Invalid user ID"
// @Failure 422 {object} problem.Problem "Invalid query parameters"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sleep/chronotype [get]
func (h *InsightsHandler) GetChronotype(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	var fieldErrors []problem.FieldError
	windowDays := queryInt(r, "window_days", service.DefaultChronotypeWindowDays, 1, maxWindowDays, &fieldErrors)
	minSessions := queryInt(r, "min_sessions", service.DefaultChronotypeMinSessions, 1, 100, &fieldErrors)
	if fieldErrors != nil {
		problem.ValidationError("Query contains invalid parameters", fieldErrors).Write(w, r)
		return
	}

	result, err := h.chronotypeService.Compute(r.Context(), userID, windowDays, minSessions)
	if err != nil {
		h.writeError(w, r, err, "Failed to compute chronotype")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetTrends handles GET /v1/users/{userId}/sleep/trends
// @Summary Get sleep trends
// @Description Aggregate tracked nights over a configurable window into nightly statistics and 0-100 scores.
// @Tags sleep-insights
// @Produce json
// @Param userId path string true "User UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Param window_days query integer false "Number of days to analyze" default(30) minimum(1) maximum(365)
// @Success 200 {object} domain.WindowTrends "Sleep trends"
// @Failure 400 {object} problem.Problem "Invalid user ID"
// @Failure 422 {object} problem.Problem "Invalid query parameters"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /users/{userId}/sleep/trends [get]
func (h *InsightsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	var fieldErrors []problem.FieldError
	windowDays := queryInt(r, "window_days", service.DefaultTrendsWindowDays, 1, maxWindowDays, &fieldErrors)
	if fieldErrors != nil {
		problem.ValidationError("Query contains invalid parameters", fieldErrors).Write(w, r)
		return
	}

	result, err := h.trendsService.Compute(r.Context(), userID, windowDays)
	if err != nil {
		h.writeError(w, r, err, "Failed to compute trends")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetInsights handles GET /v1/users/{userId}/sleep/insights
// @Summary Get LLM-powered sleep insights
// @Description Generate sleep insights from chronotype, trends and last night's metrics using an LLM.
// @Tags sleep-insights
// @Produce json
// @Param userId path string true "User UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Success 200 {object} domain.InsightsResponse "Sleep insights with LLM analysis"
// @Failure 404 {object} problem.Problem "User not found"
// @Failure 500 {object} problem.Problem "Server error"
// @Failure 502 {object} problem.Problem "LLM request failed"
// @Failure 503 {object} problem.Problem "LLM service unavailable"
// @Router /users/{userId}/sleep/insights [get]
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	result, err := h.insightsService.Generate(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "Failed to generate insights")
		return
	}

	// The trace ID lets a later feedback call link back to this generation.
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		result.TraceID = sc.TraceID().String()
	}

	writeJSON(w, http.StatusOK, result)
}

// FeedbackRequest is the request body for insights feedback.
// @Description Rating of a previous insights response.
type FeedbackRequest struct {
	// Trace ID from the insights response
	TraceID string `json:"trace_id" validate:"required,max=64" example:"4bf92f3577b34da6a3ce929d0e0e4736"`
	// Rating score (1-5)
	Score int `json:"score" validate:"min=1,max=5" example:"4" minimum:"1" maximum:"5"`
	// Optional comment
	Comment string `json:"comment,omitempty" validate:"max=2000" example:"The insights were helpful!"`
}

// PostFeedback handles POST /v1/users/{userId}/sleep/insights/feedback
// @Summary Submit feedback on sleep insights
// @Description Rate a previous insights response. The rating is recorded on a span linked to the insights trace.
// @Tags sleep-insights
// @Accept json
// @Produce json
// @Param userId path string true "User UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Param body body FeedbackRequest true "Feedback request"
// @Success 204 "Feedback submitted"
// @Failure 400 {object} problem.Problem "Invalid request"
// @Failure 422 {object} problem.Problem "Invalid feedback fields"
// @Router /users/{userId}/sleep/insights/feedback [post]
func (h *InsightsHandler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w, r)
		return
	}
	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Feedback contains invalid fields", fieldErrors).Write(w, r)
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("user.id", userID.String()),
		attribute.String("feedback.trace_id", req.TraceID),
		attribute.Int("feedback.score", req.Score),
	}
	if req.Comment != "" {
		attrs = append(attrs, attribute.String("feedback.comment", req.Comment))
	}
	opts := []trace.SpanStartOption{trace.WithAttributes(attrs...)}
	// Opaque trace IDs from clients without tracing are kept as an attribute only.
	if traceID, err := trace.TraceIDFromHex(req.TraceID); err == nil {
		linked := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{1}, Remote: true})
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: linked}))
	}
	_, span := otel.Tracer("smart-sleep/insights").Start(r.Context(), "InsightsFeedback", opts...)
	span.End()

	h.logger.Info("insights feedback",
		zap.Stringer("user_id", userID),
		zap.String("trace_id", req.TraceID),
		zap.Int("score", req.Score),
	)

	w.WriteHeader(http.StatusNoContent)
}

// writeError maps insights and LLM failures to problem responses.
func (h *InsightsHandler) writeError(w http.ResponseWriter, r *http.Request, err error, internal string) {
	var p *problem.Problem
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p = problem.NotFound("User not found")
	case errors.Is(err, llm.ErrOpenAIUnavailable):
		p = problem.ServiceUnavailable("Insights generation is not configured")
	case errors.Is(err, llm.ErrOpenAIRequest), errors.Is(err, llm.ErrOpenAIResponse):
		h.logger.Warn("insights generation failed", zap.String("path", r.URL.Path), zap.Error(err))
		p = problem.UpstreamError("llm-error", "Failed to generate insights from LLM")
	default:
		h.logger.Error(internal, zap.String("path", r.URL.Path), zap.Error(err))
		p = problem.InternalError(internal)
	}
	p.Write(w, r)
}
