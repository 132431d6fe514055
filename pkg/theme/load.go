package theme

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/modulab/dungen/pkg/errors"
)

// Load decodes a TOML theme from r.
//
// Decoding errors surface as INVALID_THEME. The decoded theme is not
// validated; run [Validate] before using it for generation.
func Load(r io.Reader) (*Theme, error) {
	var t Theme
	if _, err := toml.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTheme, err, "decode theme")
	}
	return &t, nil
}

// LoadFile decodes a TOML theme from the file at path.
func LoadFile(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTheme, err, "open theme %s", path)
	}
	defer f.Close()
	return Load(f)
}
