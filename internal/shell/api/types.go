package api

import (
	"time"

	"github.com/artpar/shipmate/internal/core/topology"
)

// =============================================================================
// Request Types
// =============================================================================

// SubmitDeclarationRequest is the body of POST /api/v1/declarations.
type SubmitDeclarationRequest struct {
	Name     string `json:"name"`
	Manifest string `json:"manifest"`
}

// =============================================================================
// Response Types
// =============================================================================

// RevisionResponse is the API shape of a stored declaration revision.
type RevisionResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Valid       bool                  `json:"valid"`
	Violations  []string              `json:"violations,omitempty"`
	Services    []string              `json:"services,omitempty"`
	Volumes     []string              `json:"volumes,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	Declaration *topology.Declaration `json:"declaration,omitempty"`
}

// ServiceResponse is the API shape of a resolved service.
type ServiceResponse struct {
	Service topology.Service `json:"service"`
}

// DependenciesResponse lists the direct predecessors of a service.
type DependenciesResponse struct {
	Service      string                `json:"service"`
	Dependencies []topology.Dependency `json:"dependencies"`
}

// MountsResponse lists the mount bindings of a service.
type MountsResponse struct {
	Service string                 `json:"service"`
	Mounts  []topology.VolumeMount `json:"mounts"`
}

// PortsResponse lists the published port bindings of a service.
type PortsResponse struct {
	Service string                 `json:"service"`
	Ports   []topology.PortBinding `json:"ports"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the response for GET /ready.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error code and message.
type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
