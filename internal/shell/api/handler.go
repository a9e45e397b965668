// Package api provides the HTTP inspection API for declaration revisions.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/artpar/shipmate/internal/core/planner"
	"github.com/artpar/shipmate/internal/core/topology"
	"github.com/artpar/shipmate/internal/shell/api/openapi"
	"github.com/artpar/shipmate/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// =============================================================================
// Handler
// =============================================================================

// EnginePinger reports whether the container engine is reachable.
// Optional: a nil pinger skips the engine readiness check.
type EnginePinger interface {
	Ping() error
}

// Handler provides HTTP handlers for the inspection API.
type Handler struct {
	store  store.Store
	engine EnginePinger
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine EnginePinger, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{
		store:  s,
		engine: engine,
		logger: l,
	}
}

// Router builds the chi router for the API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/openapi.json", openapi.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/declarations", func(r chi.Router) {
			r.Post("/", h.handleSubmitDeclaration)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", h.handleGetLatest)
				r.Get("/revisions", h.handleListRevisions)
				r.Get("/plan", h.handleGetPlan)
				r.Route("/services/{service}", func(r chi.Router) {
					r.Get("/", h.handleGetService)
					r.Get("/dependencies", h.handleGetDependencies)
					r.Get("/mounts", h.handleGetMounts)
					r.Get("/ports", h.handleGetPorts)
				})
			})
		})
		r.Route("/revisions/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetRevision)
			r.Delete("/", h.handleDeleteRevision)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	// If we got here, the store was created
	checks["database"] = "ok"

	if h.engine != nil {
		if err := h.engine.Ping(); err != nil {
			checks["engine"] = "failed"
			h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
				Status: "not_ready",
				Checks: checks,
			})
			return
		}
		checks["engine"] = "ok"
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Declaration Handlers
// =============================================================================

func (h *Handler) handleSubmitDeclaration(w http.ResponseWriter, r *http.Request) {
	var req SubmitDeclarationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", "validation_error")
		return
	}
	if req.Manifest == "" {
		h.writeError(w, http.StatusBadRequest, "manifest is required", "validation_error")
		return
	}

	decl, err := topology.Parse(req.Manifest)
	if err != nil {
		h.writeErrorDetails(w, http.StatusUnprocessableEntity, "manifest does not parse", "parse_error", []string{err.Error()})
		return
	}

	violations := topology.Validate(decl)
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Error())
	}

	rev := &store.Revision{
		ID:          "rev_" + uuid.New().String()[:8],
		Name:        req.Name,
		Manifest:    req.Manifest,
		Declaration: decl,
		Valid:       len(violations) == 0,
		Violations:  messages,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.SaveRevision(r.Context(), rev); err != nil {
		h.logger.Error("failed to save revision", "error", err, "name", req.Name)
		h.writeError(w, http.StatusInternalServerError, "failed to save revision", "internal_error")
		return
	}

	h.logger.Info("declaration revision saved",
		"id", rev.ID,
		"name", rev.Name,
		"valid", rev.Valid,
	)

	h.writeJSON(w, http.StatusCreated, revisionResponse(rev, false))
}

func (h *Handler) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	rev, ok := h.latestRevision(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, revisionResponse(rev, true))
}

func (h *Handler) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	revisions, err := h.store.ListRevisions(r.Context(), name, store.DefaultListOptions())
	if err != nil {
		h.logger.Error("failed to list revisions", "error", err, "name", name)
		h.writeError(w, http.StatusInternalServerError, "failed to list revisions", "internal_error")
		return
	}

	items := make([]RevisionResponse, 0, len(revisions))
	for i := range revisions {
		items = append(items, revisionResponse(&revisions[i], false))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"revisions": items})
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	rev, ok := h.latestRevision(w, r)
	if !ok {
		return
	}
	if rev.Declaration == nil || !rev.Valid {
		h.writeErrorDetails(w, http.StatusUnprocessableEntity, "revision is not consistent", "validation_error", rev.Violations)
		return
	}

	plan, err := planner.BuildStartPlan(rev.Declaration)
	if err != nil {
		h.writeErrorDetails(w, http.StatusUnprocessableEntity, "cannot plan declaration", "validation_error", []string{err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleGetRevision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rev, err := h.store.GetRevision(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "revision not found", "not_found")
			return
		}
		h.logger.Error("failed to load revision", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to load revision", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, revisionResponse(rev, true))
}

func (h *Handler) handleDeleteRevision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteRevision(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "revision not found", "not_found")
			return
		}
		h.logger.Error("failed to delete revision", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to delete revision", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Service Query Handlers
// =============================================================================

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	decl, ok := h.latestDeclaration(w, r)
	if !ok {
		return
	}

	svc, err := decl.Resolve(chi.URLParam(r, "service"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, ServiceResponse{Service: svc})
}

func (h *Handler) handleGetDependencies(w http.ResponseWriter, r *http.Request) {
	decl, ok := h.latestDeclaration(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "service")
	deps, err := decl.DependenciesOf(name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, DependenciesResponse{Service: name, Dependencies: deps})
}

func (h *Handler) handleGetMounts(w http.ResponseWriter, r *http.Request) {
	decl, ok := h.latestDeclaration(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "service")
	mounts, err := decl.MountsOf(name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, MountsResponse{Service: name, Mounts: mounts})
}

func (h *Handler) handleGetPorts(w http.ResponseWriter, r *http.Request) {
	decl, ok := h.latestDeclaration(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "service")
	ports, err := decl.PortBindingsOf(name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, PortsResponse{Service: name, Ports: ports})
}

// =============================================================================
// Helpers
// =============================================================================

// latestRevision loads the latest revision for the name URL parameter,
// writing the error response itself when the lookup fails.
func (h *Handler) latestRevision(w http.ResponseWriter, r *http.Request) (*store.Revision, bool) {
	name := chi.URLParam(r, "name")

	rev, err := h.store.GetLatestRevision(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "declaration not found", "not_found")
			return nil, false
		}
		h.logger.Error("failed to load revision", "error", err, "name", name)
		h.writeError(w, http.StatusInternalServerError, "failed to load revision", "internal_error")
		return nil, false
	}
	return rev, true
}

// latestDeclaration loads the latest parsed declaration for the name URL
// parameter. Invalid revisions can still be inspected; only unparsed ones
// cannot.
func (h *Handler) latestDeclaration(w http.ResponseWriter, r *http.Request) (*topology.Declaration, bool) {
	rev, ok := h.latestRevision(w, r)
	if !ok {
		return nil, false
	}
	if rev.Declaration == nil {
		h.writeError(w, http.StatusUnprocessableEntity, "revision has no parsed declaration", "parse_error")
		return nil, false
	}
	return rev.Declaration, true
}

func revisionResponse(rev *store.Revision, includeDeclaration bool) RevisionResponse {
	resp := RevisionResponse{
		ID:         rev.ID,
		Name:       rev.Name,
		Valid:      rev.Valid,
		Violations: rev.Violations,
		CreatedAt:  rev.CreatedAt,
	}
	if rev.Declaration != nil {
		resp.Services = rev.Declaration.ServiceNames()
		resp.Volumes = rev.Declaration.VolumeNames()
		if includeDeclaration {
			resp.Declaration = rev.Declaration
		}
	}
	return resp
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func (h *Handler) writeErrorDetails(w http.ResponseWriter, status int, message, code string, details []string) {
	h.writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}
