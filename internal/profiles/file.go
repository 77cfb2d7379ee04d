package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"
)

// File persists custom profiles as a JSON array. Comments are accepted when
// reading so the file can be edited by hand.
type File struct {
	path   string
	logger *zerolog.Logger
}

// NewFile returns a store backed by path. An empty path disables
// persistence.
func NewFile(path string, logger *zerolog.Logger) *File {
	return &File{path: path, logger: logger}
}

// Load reads the stored profiles. A missing file yields none.
func (f *File) Load() ([]Profile, error) {
	if f == nil || f.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to read profiles: %w", err)
	}

	var list []Profile
	if err := json.Unmarshal(jsonc.ToJSON(data), &list); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", f.path, err)
	}
	return list, nil
}

// Save writes the profiles to a temp file, then renames it over the
// destination.
func (f *File) Save(list []Profile) error {
	if f == nil || f.path == "" {
		return nil
	}
	dir := filepath.Dir(f.path)
	tempFname := filepath.Join(dir, "."+filepath.Base(f.path)+".new")

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("unable to create profiles dir: %w", err)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode profiles: %w", err)
	}

	tmp, err := os.Create(tempFname)
	if err != nil {
		return fmt.Errorf("unable to create temp file: %w", err)
	}

	// No early returns from here on, so the temp file is always cleaned up
	// on failure.
	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tempFname, f.path)
	}
	if err != nil {
		if remErr := os.Remove(tempFname); remErr != nil && f.logger != nil {
			f.logger.Warn().Err(remErr).Str("path", tempFname).Msg("unable to remove temp file")
		}
		return fmt.Errorf("unable to write profiles: %w", err)
	}
	return nil
}
