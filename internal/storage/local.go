package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"seismic-stations/internal/station"
	"seismic-stations/pkg/logger"
)

const (
	// DefaultLocalPath is the collection file used when none is configured.
	DefaultLocalPath = "stations.json"
)

// LocalStorage keeps the station collection in a single JSON file.
type LocalStorage struct {
	path string
}

// NewLocalStorage creates a local storage instance for path.
// An empty path means DefaultLocalPath in the working directory.
func NewLocalStorage(path string) *LocalStorage {
	if path == "" {
		path = DefaultLocalPath
	}
	return &LocalStorage{path: path}
}

// Path returns the file the collection is stored in.
func (s *LocalStorage) Path() string {
	return s.path
}

// Load reads the collection file. A missing file is an empty collection.
func (s *LocalStorage) Load(ctx context.Context) ([]station.Station, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Log.Debug().Str("backend", "local").Str("path", s.path).Msg("no collection file yet, starting empty")
		return []station.Station{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrTransport, s.path, err)
	}

	stations, err := decodeStations(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.path, err)
	}

	logger.Log.Debug().
		Str("backend", "local").
		Str("path", s.path).
		Int("stations", len(stations)).
		Dur("elapsed", time.Since(start)).
		Msg("Load completed")
	return stations, nil
}

// Save writes the collection to a temp file and renames it over the target,
// so readers see either the old or the new document.
func (s *LocalStorage) Save(ctx context.Context, stations []station.Station) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	data, err := encodeStations(stations)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	logger.Log.Debug().
		Str("backend", "local").
		Str("path", s.path).
		Int("stations", len(stations)).
		Dur("elapsed", time.Since(start)).
		Msg("Save completed")
	return nil
}

// writeFileAtomic streams data to a sibling temp file, syncs it and renames
// it to dest.
func writeFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(dest), uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp file %q: %w", tmp, err)
	}

	_, werr := f.Write(data)
	if werr == nil {
		werr = f.Sync()
	}
	cerr := f.Close()

	if werr != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("failed to write %q: %w", tmp, werr)
	}
	if cerr != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("failed to flush %q: %w", tmp, cerr)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("failed to rename to %q: %w", dest, err)
	}
	return nil
}

var _ Store = (*LocalStorage)(nil)
