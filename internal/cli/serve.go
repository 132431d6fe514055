package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/layout"
	"github.com/modulab/dungen/pkg/pipeline"
	"github.com/modulab/dungen/pkg/store"
)

// ServeConfig is the HTTP API configuration, populated from the environment
// and overridable with flags.
type ServeConfig struct {
	Addr         string        `env:"DUNGEN_ADDR" envDefault:":8080"`
	StoreBackend string        `env:"DUNGEN_STORE" envDefault:"memory"`
	StorePath    string        `env:"DUNGEN_STORE_PATH"`
	RedisURL     string        `env:"DUNGEN_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	MongoURI     string        `env:"DUNGEN_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB      string        `env:"DUNGEN_MONGO_DB" envDefault:"dungen"`
	Timeout      time.Duration `env:"DUNGEN_TIMEOUT" envDefault:"60s"`
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dungen HTTP API",
		Long: `Run the dungen HTTP API.

Configuration comes from DUNGEN_* environment variables (store backend,
connection URLs, request timeout); --addr overrides the listen address.

Endpoints:

  POST   /api/generate            generate a dungeon (pipeline options as JSON)
  GET    /api/layouts             list stored layouts
  GET    /api/layouts/{id}        fetch one layout
  DELETE /api/layouts/{id}        delete one layout
  GET    /api/layouts/{id}/svg    render a stored layout as SVG
  GET    /healthz                 liveness check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg ServeConfig
			if err := env.Parse(&cfg); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse environment")
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides DUNGEN_ADDR)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg ServeConfig) error {
	st, err := store.Open(ctx, store.Config{
		Backend:       cfg.StoreBackend,
		Path:          cfg.StorePath,
		RedisURL:      cfg.RedisURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDB,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	api := &apiServer{
		runner: c.newRunner(st),
		store:  st,
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.routes(cfg.Timeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("serving", "addr", cfg.Addr, "store", cfg.StoreBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// apiServer holds the HTTP handler state.
type apiServer struct {
	runner *pipeline.Runner
	store  store.Store
}

func (a *apiServer) routes(timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", a.handleGenerate)
		r.Get("/layouts", a.handleList)
		r.Route("/layouts/{id}", func(r chi.Router) {
			r.Get("/", a.handleGet)
			r.Delete("/", a.handleDelete)
			r.Get("/svg", a.handleSVG)
		})
	})

	return r
}

func (a *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatJSON}
	}

	result, err := a.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"layout": result.Layout,
		"saved":  result.Saved,
		"stats": map[string]any{
			"modules":     result.Stats.Modules,
			"links":       result.Stats.Links,
			"backtracks":  result.Stats.Backtracks,
			"generate_ms": result.Stats.GenerateTime.Milliseconds(),
		},
	})
}

func (a *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := a.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (a *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	l, err := a.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleSVG(w http.ResponseWriter, r *http.Request) {
	l, err := a.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	detailed := r.URL.Query().Get("detailed") == "true"
	svg, err := layout.RenderSVG(r.Context(), layout.ToDOT(l, layout.DOTOptions{Detailed: detailed}))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidTheme, errors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case errors.ErrCodeInsufficientRequiredSpace, errors.ErrCodeInsufficientSpace,
		errors.ErrCodeInvalidHistory, errors.ErrCodeBacktrackLimit:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
