// Package chi exposes the rankdex HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/rankdex/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/rankdex/internal/usecase/usage"
)

// requestTimeout bounds one ranking request end to end. When it fires,
// in-flight provider calls are abandoned and whatever the engines and
// cache produced is returned.
const requestTimeout = 30 * time.Second

// Error codes of the JSON error envelope.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeStoreUnavailable = "candidate_store_unavailable"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// recommendationsRequest is the wire shape of POST /v1/recommendations.
type recommendationsRequest struct {
	UserID       string   `json:"user_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies string   `json:"technologies"`
	Interests    string   `json:"interests"`
	MaxResults   int      `json:"max_results"`
	Engines      []string `json:"engines"`
}

// Server wires the use case services into HTTP handlers.
type Server struct {
	recommend *recommenduc.Service
	usage     *usageuc.Service
	health    *healthuc.Service
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{recommend: recommend, usage: usage, health: health, logger: logger}
}

// RegisterRoutes mounts all handlers on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/v1/recommendations", s.Recommendations)
	r.Get("/v1/usage", s.Usage)
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// Recommendations handles POST /v1/recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "user_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := s.recommend.Recommend(ctx, recommenduc.Request{
		UserID:       req.UserID,
		Title:        req.Title,
		Description:  req.Description,
		Technologies: req.Technologies,
		Interests:    req.Interests,
		MaxResults:   req.MaxResults,
		Engines:      req.Engines,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Usage handles GET /v1/usage.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context()))
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Checks["database"] == healthuc.CheckError {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// handleError maps domain sentinels to HTTP statuses. Degraded results
// never land here, only the hard failures do.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNoCandidateStore):
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "candidate store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		// The usecase already prefers partial results; reaching this
		// means even the candidate fetch did not finish in time.
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "request timed out")
	default:
		s.logger.Error("Unhandled ranking error",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
