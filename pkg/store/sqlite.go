package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/layout"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS layouts (
	id         TEXT PRIMARY KEY,
	theme      TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	modules    INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	data       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS layouts_created_at ON layouts (created_at DESC);
`

// SQLite stores layouts in a single-file database using the pure-Go driver,
// with listing columns alongside the full JSON document.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and if needed initializes) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "sqlite store requires a database path")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open sqlite db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping sqlite db")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "apply schema")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, l *layout.Layout) error {
	data, err := json.Marshal(l)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode layout %s", l.ID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO layouts (id, theme, seed, modules, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			theme = excluded.theme,
			seed = excluded.seed,
			modules = excluded.modules,
			created_at = excluded.created_at,
			data = excluded.data`,
		l.ID, l.Theme, int64(l.Seed), len(l.Modules), l.CreatedAt.UTC().UnixMilli(), data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save layout %s", l.ID)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*layout.Layout, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM layouts WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load layout %s", id)
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout %s", id)
	}
	return &l, nil
}

func (s *SQLite) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, theme, seed, modules, created_at
		FROM layouts ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list layouts")
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info   Info
			seed   int64
			millis int64
		)
		if err := rows.Scan(&info.ID, &info.Theme, &seed, &info.Modules, &millis); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan layout row")
		}
		info.Seed = uint64(seed)
		info.CreatedAt = time.UnixMilli(millis).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "iterate layouts")
	}
	return infos, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
