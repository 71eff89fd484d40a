// Package store persists solved mosaic plans so they can be listed and
// rendered again later.
//
// Three backends implement [Store]:
//   - [MemoryStore]: process-local, used in tests and by default in the server
//   - [SQLiteStore]: a single file, used by the CLI history command
//   - [MongoStore]: a shared collection for multi-instance deployments
//
// [Open] picks a backend from a DSN.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/pipeline"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("store: record not found")

// Record is a stored plan together with the inputs needed to render it.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	Target         string `json:"target" bson:"target"`
	TileDir        string `json:"tile_dir" bson:"tile_dir"`
	TileMode       string `json:"tile_mode,omitempty" bson:"tile_mode,omitempty"`
	Equalize       bool   `json:"equalize,omitempty" bson:"equalize,omitempty"`
	Transfer       string `json:"transfer,omitempty" bson:"transfer,omitempty"`
	MaxOccurrences int    `json:"max_occurrences" bson:"max_occurrences"`
	Summary        string `json:"summary" bson:"summary"`

	Plan      plan.Plan      `json:"plan" bson:"plan"`
	TileNames []string       `json:"tile_names" bson:"tile_names"`
	Stats     pipeline.Stats `json:"stats" bson:"stats"`
}

// NewRecord builds a record from a finished pipeline run.
func NewRecord(opts pipeline.Options, res *pipeline.Result) *Record {
	return &Record{
		Target:         opts.Target,
		TileDir:        opts.TileDir,
		TileMode:       opts.TileMode,
		Equalize:       opts.Equalize,
		Transfer:       opts.Transfer,
		MaxOccurrences: opts.MaxOccurrences,
		Summary:        opts.String(),
		Plan:           res.Plan,
		TileNames:      res.TileNames,
		Stats:          res.Stats,
	}
}

// RenderOptions returns pipeline options that reload the record's inputs.
func (r *Record) RenderOptions(formats ...string) pipeline.Options {
	return pipeline.Options{
		Target:         r.Target,
		TileDir:        r.TileDir,
		TileMode:       r.TileMode,
		Equalize:       r.Equalize,
		Transfer:       r.Transfer,
		MaxOccurrences: r.MaxOccurrences,
		Solver:         r.Stats.Solver,
		Metric:         r.Stats.Metric,
		Formats:        formats,
	}
}

// Store persists plan records. Implementations are safe for concurrent use.
type Store interface {
	// Save stores rec, assigning ID and CreatedAt when they are unset.
	Save(ctx context.Context, rec *Record) error
	// Get returns the record with id or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
	// Delete removes the record with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open returns the backend named by dsn:
//
//	memory                       in-process map
//	sqlite:///path/plans.db      SQLite file (a bare path works too)
//	mongodb://host/db            MongoDB, database from the URI path
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return NewMongoStore(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.Contains(dsn, "://"):
		return nil, fmt.Errorf("store: unsupported dsn %q", dsn)
	default:
		return NewSQLiteStore(ctx, dsn)
	}
}

func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
