package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	"github.com/modulab/dungen/pkg/pipeline"
	"github.com/modulab/dungen/pkg/store"
	"github.com/modulab/dungen/pkg/theme"
)

func testServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemory()
	api := &apiServer{
		runner: pipeline.NewRunner(st, newLogger(io.Discard, log.InfoLevel)),
		store:  st,
	}
	srv := httptest.NewServer(api.routes(time.Minute))
	t.Cleanup(srv.Close)
	return srv, st
}

func serveTheme() *theme.Theme {
	return &theme.Theme{
		Name:       "serve-fixture",
		MinModules: 3,
		MaxModules: 3,
		Categories: []theme.Category{
			{
				ID:     "rooms",
				Weight: 1,
				Assets: []theme.Asset{
					{
						ID:     "room",
						Weight: 1,
						Size:   [2]float64{4, 4},
						Doors: []theme.Door{
							{Pos: [2]float64{2, 0}, Facing: 0},
							{Pos: [2]float64{0, 2}, Facing: 90},
							{Pos: [2]float64{-2, 0}, Facing: 180},
							{Pos: [2]float64{0, -2}, Facing: 270},
						},
					},
				},
			},
		},
	}
}

func saveTestLayout(t *testing.T, st store.Store) string {
	t.Helper()
	runner := pipeline.NewRunner(st, newLogger(io.Discard, log.InfoLevel))
	result, err := runner.Execute(t.Context(), pipeline.Options{
		Theme:   serveTheme(),
		Seed:    42,
		Formats: []string{pipeline.FormatJSON},
		Save:    true,
	})
	if err != nil {
		t.Fatalf("seed layout: %v", err)
	}
	return result.Layout.ID
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	themePath := filepath.Join(t.TempDir(), "theme.toml")
	themeTOML := `
name = "api-fixture"
min_modules = 3
max_modules = 3

[[categories]]
id = "rooms"
weight = 1.0

[[categories.assets]]
id = "room"
weight = 1.0
size = [4.0, 4.0]

[[categories.assets.doors]]
pos = [2.0, 0.0]
facing = 0.0

[[categories.assets.doors]]
pos = [0.0, 2.0]
facing = 90.0

[[categories.assets.doors]]
pos = [-2.0, 0.0]
facing = 180.0

[[categories.assets.doors]]
pos = [0.0, -2.0]
facing = 270.0
`
	if err := os.WriteFile(themePath, []byte(themeTOML), 0644); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]any{
		"theme_path": themePath,
		"seed":       42,
		"save":       true,
	})
	resp, err := http.Post(srv.URL+"/api/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got struct {
		Layout struct {
			ID      string `json:"id"`
			Theme   string `json:"theme"`
			Modules []any  `json:"modules"`
		} `json:"layout"`
		Saved bool `json:"saved"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Layout.Theme != "api-fixture" || len(got.Layout.Modules) != 3 {
		t.Errorf("layout = %+v", got.Layout)
	}
	if !got.Saved {
		t.Error("layout should have been saved")
	}

	fetched, err := http.Get(srv.URL + "/api/layouts/" + got.Layout.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer fetched.Body.Close()
	if fetched.StatusCode != http.StatusOK {
		t.Errorf("fetch status = %d, want 200", fetched.StatusCode)
	}
}

func TestGenerateEndpointBadBody(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/generate", "application/json",
		bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListEndpoint(t *testing.T) {
	srv, st := testServer(t)
	saveTestLayout(t, st)

	resp, err := http.Get(srv.URL + "/api/layouts")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var infos []store.Info
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Modules != 3 {
		t.Errorf("infos = %+v", infos)
	}
}

func TestGetEndpointMissing(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/layouts/no-such-id")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	var errBody map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatal(err)
	}
	if errBody["code"] != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", errBody["code"])
	}
}

func TestDeleteEndpoint(t *testing.T) {
	srv, st := testServer(t)
	id := saveTestLayout(t, st)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/layouts/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	check, err := http.Get(srv.URL + "/api/layouts/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer check.Body.Close()
	if check.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", check.StatusCode)
	}
}

func TestServeConfigFromEnv(t *testing.T) {
	t.Setenv("DUNGEN_ADDR", ":9999")
	t.Setenv("DUNGEN_STORE", "sqlite")
	t.Setenv("DUNGEN_TIMEOUT", "30s")

	var cfg ServeConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.StoreBackend != "sqlite" || cfg.Timeout != 30*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MongoDB != "dungen" {
		t.Errorf("MongoDB default = %q, want dungen", cfg.MongoDB)
	}
}
