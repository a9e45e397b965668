package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/shipmate/internal/core/topology"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Revision Operations
// =============================================================================

// revisionRow represents a revision row in the database.
type revisionRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Manifest    string  `db:"manifest"`
	Declaration *string `db:"declaration"`
	Valid       bool    `db:"valid"`
	Violations  *string `db:"violations"`
	CreatedAt   string  `db:"created_at"`
}

func (s *SQLiteStore) SaveRevision(ctx context.Context, rev *Revision) error {
	var declJSON []byte
	if rev.Declaration != nil {
		var err error
		declJSON, err = json.Marshal(rev.Declaration)
		if err != nil {
			return NewStoreError("SaveRevision", "revision", rev.ID, "failed to serialize declaration", ErrInvalidData)
		}
	}
	violationsJSON, err := json.Marshal(rev.Violations)
	if err != nil {
		return NewStoreError("SaveRevision", "revision", rev.ID, "failed to serialize violations", ErrInvalidData)
	}

	query := `
		INSERT INTO revisions (
			id, name, manifest, declaration, valid, violations, created_at
		) VALUES (
			:id, :name, :manifest, :declaration, :valid, :violations, :created_at
		)`

	row := map[string]any{
		"id":          rev.ID,
		"name":        rev.Name,
		"manifest":    rev.Manifest,
		"declaration": string(declJSON),
		"valid":       rev.Valid,
		"violations":  string(violationsJSON),
		"created_at":  rev.CreatedAt.Format(time.RFC3339),
	}

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: revisions.id") {
			return NewStoreError("SaveRevision", "revision", rev.ID, "revision with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("SaveRevision", "revision", rev.ID, err.Error(), err)
	}

	return nil
}

func (s *SQLiteStore) GetRevision(ctx context.Context, id string) (*Revision, error) {
	query := `SELECT * FROM revisions WHERE id = ?`

	var row revisionRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetRevision", "revision", id, "revision not found", ErrNotFound)
		}
		return nil, NewStoreError("GetRevision", "revision", id, err.Error(), err)
	}

	return rowToRevision(&row)
}

func (s *SQLiteStore) GetLatestRevision(ctx context.Context, name string) (*Revision, error) {
	query := `SELECT * FROM revisions WHERE name = ? ORDER BY created_at DESC, id DESC LIMIT 1`

	var row revisionRow
	if err := s.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetLatestRevision", "revision", name, "no revisions for this name", ErrNotFound)
		}
		return nil, NewStoreError("GetLatestRevision", "revision", name, err.Error(), err)
	}

	return rowToRevision(&row)
}

func (s *SQLiteStore) ListRevisions(ctx context.Context, name string, opts ListOptions) ([]Revision, error) {
	if opts.Limit <= 0 {
		opts = DefaultListOptions()
	}

	query := `SELECT * FROM revisions WHERE name = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	var rows []revisionRow
	if err := s.db.SelectContext(ctx, &rows, query, name, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListRevisions", "revision", name, err.Error(), err)
	}

	revisions := make([]Revision, 0, len(rows))
	for i := range rows {
		rev, err := rowToRevision(&rows[i])
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, *rev)
	}

	return revisions, nil
}

func (s *SQLiteStore) DeleteRevision(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revisions WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteRevision", "revision", id, err.Error(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return NewStoreError("DeleteRevision", "revision", id, err.Error(), err)
	}
	if affected == 0 {
		return NewStoreError("DeleteRevision", "revision", id, "revision not found", ErrNotFound)
	}
	return nil
}

// rowToRevision converts a database row to a Revision.
func rowToRevision(row *revisionRow) (*Revision, error) {
	rev := &Revision{
		ID:       row.ID,
		Name:     row.Name,
		Manifest: row.Manifest,
		Valid:    row.Valid,
	}

	if row.Declaration != nil && *row.Declaration != "" {
		var decl topology.Declaration
		if err := json.Unmarshal([]byte(*row.Declaration), &decl); err != nil {
			return nil, NewStoreError("rowToRevision", "revision", row.ID, "failed to deserialize declaration", ErrInvalidData)
		}
		rev.Declaration = &decl
	}

	if row.Violations != nil && *row.Violations != "" {
		if err := json.Unmarshal([]byte(*row.Violations), &rev.Violations); err != nil {
			return nil, NewStoreError("rowToRevision", "revision", row.ID, "failed to deserialize violations", ErrInvalidData)
		}
	}

	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToRevision", "revision", row.ID, "invalid created_at timestamp", ErrInvalidData)
	}
	rev.CreatedAt = createdAt

	return rev, nil
}
