package store

import (
	"context"
	"time"

	"github.com/artpar/shipmate/internal/core/topology"
)

// =============================================================================
// Revision Entity
// =============================================================================

// Revision is one stored version of a named declaration: the raw manifest
// text, the parsed snapshot, and the validation verdict at save time.
type Revision struct {
	ID          string
	Name        string // declaration name, e.g. "production"
	Manifest    string // raw YAML as submitted
	Declaration *topology.Declaration
	Valid       bool
	Violations  []string
	CreatedAt   time.Time
}

// =============================================================================
// Store Interface
// =============================================================================

// ListOptions controls pagination for list operations.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns sensible pagination defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: 50, Offset: 0}
}

// Store defines the persistence interface for declaration revisions.
type Store interface {
	SaveRevision(ctx context.Context, rev *Revision) error
	GetRevision(ctx context.Context, id string) (*Revision, error)
	GetLatestRevision(ctx context.Context, name string) (*Revision, error)
	ListRevisions(ctx context.Context, name string, opts ListOptions) ([]Revision, error)
	DeleteRevision(ctx context.Context, id string) error

	Close() error
}
