package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/layout"
)

// File stores each layout as a JSON document in a directory, one file per
// layout ID. This is the default persistent backend for CLI usage.
type File struct {
	dir string
}

// NewFile creates a file-based store in dir, creating the directory if it
// does not exist.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "file store requires a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create store directory %s", dir)
	}
	return &File{dir: dir}, nil
}

func (s *File) Save(ctx context.Context, l *layout.Layout) error {
	return layout.WriteFile(l, s.path(l.ID))
}

func (s *File) Get(ctx context.Context, id string) (*layout.Layout, error) {
	path := s.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, notFound(id)
	}
	return layout.ReadFile(path)
}

func (s *File) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read store directory %s", s.dir)
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		l, err := layout.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue // unreadable entries are skipped, not fatal
		}
		infos = append(infos, Info{
			ID:        l.ID,
			Theme:     l.Theme,
			Seed:      l.Seed,
			Modules:   len(l.Modules),
			CreatedAt: l.CreatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

func (s *File) Delete(ctx context.Context, id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return notFound(id)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	return nil
}

func (s *File) Close() error { return nil }

func (s *File) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

var _ Store = (*File)(nil)
