// Package store persists generated layouts across a set of pluggable
// backends: in-memory, directory of JSON files, Redis, MongoDB, and SQLite.
//
// All backends speak the same [Store] interface and share the layout JSON
// format from pkg/layout, so a dungeon generated against one backend can be
// listed, fetched, and rendered from any other. Use [Open] to build a
// backend from configuration; every store it returns reports operations to
// the observability hooks.
package store

import (
	"context"
	"time"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/layout"
	"github.com/modulab/dungen/pkg/observability"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Info is a layout listing entry, cheap enough to enumerate without loading
// full module data.
type Info struct {
	ID        string    `json:"id"`
	Theme     string    `json:"theme"`
	Seed      uint64    `json:"seed"`
	Modules   int       `json:"modules"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists layouts by ID.
//
// Get and Delete return a NOT_FOUND error for unknown IDs. Save overwrites
// an existing layout with the same ID.
type Store interface {
	Save(ctx context.Context, l *layout.Layout) error
	Get(ctx context.Context, id string) (*layout.Layout, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend string

	// Path is the directory for the file backend or the database file for
	// the sqlite backend.
	Path string

	// RedisURL is a redis connection URL (redis://host:port/db).
	RedisURL string

	// MongoURI and MongoDatabase locate the mongo collection.
	MongoURI      string
	MongoDatabase string
}

// Open builds the configured backend. The returned store is instrumented
// with observability hooks.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		s = NewMemory()
	case BackendFile:
		s, err = NewFile(cfg.Path)
	case BackendRedis:
		s, err = NewRedis(ctx, cfg.RedisURL)
	case BackendMongo:
		s, err = NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case BackendSQLite:
		s, err = NewSQLite(cfg.Path)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return instrument(cfg.Backend, s), nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "layout %q not found", id)
}

// instrumented reports every operation to the global store hooks before
// delegating to the wrapped backend.
type instrumented struct {
	backend string
	inner   Store
}

func instrument(backend string, s Store) Store {
	if backend == "" {
		backend = BackendMemory
	}
	return &instrumented{backend: backend, inner: s}
}

func (s *instrumented) Save(ctx context.Context, l *layout.Layout) error {
	observability.Store().OnSave(ctx, s.backend, l.ID)
	return s.inner.Save(ctx, l)
}

func (s *instrumented) Get(ctx context.Context, id string) (*layout.Layout, error) {
	l, err := s.inner.Get(ctx, id)
	observability.Store().OnLoad(ctx, s.backend, id, err == nil)
	return l, err
}

func (s *instrumented) List(ctx context.Context) ([]Info, error) {
	return s.inner.List(ctx)
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	observability.Store().OnDelete(ctx, s.backend, id)
	return s.inner.Delete(ctx, id)
}

func (s *instrumented) Close() error {
	return s.inner.Close()
}
