// Package cli implements the dungen command-line interface.
//
// This package provides commands for generating dungeons from theme files,
// validating themes, rendering stored layouts, browsing the layout store,
// and serving the HTTP API. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - generate: Run the placement engine and export a dungeon layout
//   - validate: Check a theme file for structural problems
//   - render: Produce DOT, SVG, or PNG output from a stored or exported layout
//   - layouts: List, show, and delete stored layouts
//   - serve: Run the HTTP API
//   - tui: Interactive generation loop in the terminal
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/modulab/dungen/pkg/buildinfo"
	"github.com/modulab/dungen/pkg/pipeline"
	"github.com/modulab/dungen/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "dungen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "dungen generates connected dungeon layouts from weighted themes",
		Long:         `dungen is a procedural dungeon generator: it samples weighted module themes, grows a connected layout with a backtracking placement search, and exports the result as JSON, DOT, SVG, or PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// storeFlags carries the store selection flags shared by several commands.
type storeFlags struct {
	backend  string
	path     string
	redisURL string
	mongoURI string
	mongoDB  string
}

// register wires the shared store flags onto cmd.
func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "store", store.BackendFile, "store backend: file, sqlite, redis, mongo, memory")
	cmd.Flags().StringVar(&f.path, "store-path", "", "directory (file) or database file (sqlite); defaults under the user data dir")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", "redis://localhost:6379/0", "redis connection URL")
	cmd.Flags().StringVar(&f.mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongo connection URI")
	cmd.Flags().StringVar(&f.mongoDB, "mongo-db", "dungen", "mongo database name")
}

// open builds the configured store backend.
func (f *storeFlags) open(ctx context.Context) (store.Store, error) {
	cfg := store.Config{
		Backend:       f.backend,
		Path:          f.path,
		RedisURL:      f.redisURL,
		MongoURI:      f.mongoURI,
		MongoDatabase: f.mongoDB,
	}
	if cfg.Path == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		switch cfg.Backend {
		case store.BackendSQLite:
			cfg.Path = filepath.Join(dir, "layouts.db")
		default:
			cfg.Path = filepath.Join(dir, "layouts")
		}
	}
	return store.Open(ctx, cfg)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(st store.Store) *pipeline.Runner {
	return pipeline.NewRunner(st, c.Logger)
}

// dataDir returns the data directory using the XDG standard
// (~/.local/share/dungen/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	return strings.Split(s, ",")
}
