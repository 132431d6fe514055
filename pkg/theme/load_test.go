package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modulab/dungen/pkg/errors"
)

const sampleTOML = `
name = "mine"
min_modules = 5
max_modules = 9

[[categories]]
id = "tunnels"
weight = 0.7

  [[categories.assets]]
  id = "shaft"
  weight = 1.0
  size = [2, 6]

    [[categories.assets.doors]]
    pos = [0, 3]
    facing = 90

    [[categories.assets.doors]]
    pos = [0, -3]
    facing = 270

[[categories]]
id = "depots"
weight = 0.3
required = true
limits = { min = 1, max = 2 }

  [[categories.assets]]
  id = "storeroom"
  weight = 1.0
  spawn_once = true
  size = [4, 4]

    [[categories.assets.doors]]
    pos = [-2, 0]
    facing = 180
`

func TestLoad(t *testing.T) {
	th, err := Load(strings.NewReader(sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "mine", th.Name)
	assert.Equal(t, 5, th.MinModules)
	assert.Equal(t, 9, th.MaxModules)
	require.Len(t, th.Categories, 2)

	tunnels := th.Category("tunnels")
	require.NotNil(t, tunnels)
	assert.False(t, tunnels.Required)
	assert.Nil(t, tunnels.Limits)
	require.Len(t, tunnels.Assets, 1)
	assert.Equal(t, [2]float64{2, 6}, tunnels.Assets[0].Size)
	require.Len(t, tunnels.Assets[0].Doors, 2)
	assert.Equal(t, 90.0, tunnels.Assets[0].Doors[0].Facing)

	depots := th.Category("depots")
	require.NotNil(t, depots)
	assert.True(t, depots.Required)
	require.NotNil(t, depots.Limits)
	assert.Equal(t, 1, depots.Limits.Min)
	assert.Equal(t, 2, depots.Limits.Max)
	assert.True(t, depots.Assets[0].SpawnOnce)

	assert.Empty(t, Validate(th))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0644))

	th, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", th.Name)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTheme, errors.GetCode(err))
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(strings.NewReader("name = [broken"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTheme, errors.GetCode(err))
}
