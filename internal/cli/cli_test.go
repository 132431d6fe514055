package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandStructure(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	if root.Use != "dungen" {
		t.Errorf("Use = %q, want dungen", root.Use)
	}

	want := map[string]bool{
		"generate":   false,
		"validate":   false,
		"render":     false,
		"layouts":    false,
		"serve":      false,
		"tui":        false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"json"}},
		{"svg", []string{"svg"}},
		{"json,dot,png", []string{"json", "dot", "png"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestDataDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-test")
	dir, err := dataDir()
	if err != nil {
		t.Fatalf("dataDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", appName) {
		t.Errorf("dataDir = %q", dir)
	}
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.toml")
	content := `
name = "mini"
min_modules = 1
max_modules = 2

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
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	cmd := c.validateCommand()
	cmd.SetArgs([]string{path})
	cmd.SetOut(io.Discard)
	if err := cmd.Execute(); err != nil {
		t.Errorf("validate on a good theme: %v", err)
	}
}

func TestValidateCommandRejectsBrokenTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	content := `
name = "broken"
min_modules = 5
max_modules = 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	cmd := c.validateCommand()
	cmd.SetArgs([]string{path})
	cmd.SetOut(io.Discard)
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Error("validate should fail on a broken theme")
	}
}
