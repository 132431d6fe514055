// Package layout provides the serialization format for generated dungeon
// layouts.
//
// This package defines the canonical wire format for dungen's output, used
// for JSON files, API responses, and storage backends. A [Layout] captures
// everything needed to reproduce or render a run: the theme and seed, every
// placed module with its world pose, and the connection graph.
//
// Common operations:
//
//	l := layout.New("catacomb", result, world.Placements())
//	layout.WriteFile(l, "dungeon.json")   // Layout → file
//	l, _ = layout.ReadFile("dungeon.json") // file → Layout
//	dot := layout.ToDOT(l, layout.DOTOptions{})
package layout

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/modulab/dungen/pkg/dungeon"
	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/geom"
)

// Module is one placed module instance with its resolved world pose.
type Module struct {
	Instance int        `json:"instance" bson:"instance"`
	Asset    string     `json:"asset" bson:"asset"`
	Category string     `json:"category" bson:"category"`
	Pos      [2]float64 `json:"pos" bson:"pos"`
	Angle    float64    `json:"angle" bson:"angle"` // degrees CCW
	Size     [2]float64 `json:"size" bson:"size"`
}

// Link is one consumed connection pair between two placed modules.
type Link struct {
	From int  `json:"from" bson:"from"`
	To   int  `json:"to" bson:"to"`
	Loop bool `json:"loop,omitempty" bson:"loop,omitempty"`
}

// Stats summarizes how the generation run went.
type Stats struct {
	Backtracks int           `json:"backtracks" bson:"backtracks"`
	Duration   time.Duration `json:"duration_ns" bson:"duration_ns"`
}

// Layout is the canonical serialization format for a generated dungeon.
// The format is designed for round-trip fidelity: generate, export,
// re-import, and render produce identical results.
type Layout struct {
	ID        string    `json:"id" bson:"_id"`
	Theme     string    `json:"theme" bson:"theme"`
	Seed      uint64    `json:"seed" bson:"seed"`
	Target    int       `json:"target" bson:"target"`
	Modules   []Module  `json:"modules" bson:"modules"`
	Links     []Link    `json:"links" bson:"links"`
	Stats     Stats     `json:"stats" bson:"stats"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// New assembles a Layout from a finished generation result and the world
// placements it committed. Placements missing from the result (or vice
// versa) are skipped; the engine guarantees the two agree.
func New(themeName string, res *dungeon.Result, placements []geom.Placement) *Layout {
	byID := make(map[dungeon.InstanceID]geom.Placement, len(placements))
	for _, p := range placements {
		byID[p.ID] = p
	}

	l := &Layout{
		ID:     uuid.NewString(),
		Theme:  themeName,
		Seed:   res.Seed,
		Target: res.Target,
		Stats: Stats{
			Backtracks: res.Backtracks,
			Duration:   res.Duration,
		},
		CreatedAt: time.Now().UTC(),
	}

	for _, placed := range res.Placed {
		p, ok := byID[placed.Instance]
		if !ok {
			continue
		}
		l.Modules = append(l.Modules, Module{
			Instance: int(placed.Instance),
			Asset:    placed.Asset,
			Category: placed.Category,
			Pos:      [2]float64{p.Pos.X, p.Pos.Y},
			Angle:    p.Angle,
			Size:     p.Size,
		})
	}
	for _, link := range res.Links {
		l.Links = append(l.Links, Link{
			From: int(link.From),
			To:   int(link.To),
			Loop: link.Loop,
		})
	}
	return l
}

// Validate checks structural integrity: every link endpoint must reference a
// module present in the layout.
func (l *Layout) Validate() error {
	if l.Theme == "" {
		return errors.New(errors.ErrCodeInvalidFormat, "layout has no theme name")
	}
	known := make(map[int]bool, len(l.Modules))
	for _, m := range l.Modules {
		if known[m.Instance] {
			return errors.New(errors.ErrCodeInvalidFormat, "duplicate module instance %d", m.Instance)
		}
		known[m.Instance] = true
	}
	for _, link := range l.Links {
		if !known[link.From] || !known[link.To] {
			return errors.New(errors.ErrCodeInvalidFormat,
				"link %d->%d references an unknown module", link.From, link.To)
		}
	}
	return nil
}

// Marshal converts a Layout to indented JSON bytes.
func Marshal(l *Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a Layout as JSON to an io.Writer.
func Write(l *Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode layout")
	}
	return nil
}

// WriteFile writes a Layout to a JSON file created with 0644 permissions.
func WriteFile(l *Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	return Write(l, f)
}

// Read decodes a JSON layout from an io.Reader and validates it.
func Read(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// ReadFile reads a JSON file and returns the decoded Layout.
func ReadFile(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}
