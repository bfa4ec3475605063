package fortune

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Fortune is one entry picked from a source file.
type Fortune struct {
	Text   string // entry text with normalized line endings
	Author string // attribution without the leading "--", empty when absent
}

// Library selects fortunes from the source files of one directory and keeps
// their sidecar indexes up to date.
type Library struct {
	dir        string
	fs         afero.Fs
	rng        *rand.Rand
	logger     *slog.Logger
	lineEnding string
	locking    bool
	mu         sync.Mutex
}

// Option defines a function that configures a Library.
type Option func(*Library)

// Open creates a Library over the fortune files in dir.
// The directory must exist; sidecars are created lazily.
func Open(dir string, options ...Option) (*Library, error) {
	lib := &Library{
		dir:        dir,
		fs:         afero.NewOsFs(),
		lineEnding: "\r\n",
		locking:    true,
	}

	// Apply options
	for _, option := range options {
		option(lib)
	}

	if lib.rng == nil {
		lib.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	isDir, err := afero.IsDir(lib.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, dir, err)
	}
	if !isDir {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryUnavailable, dir)
	}

	return lib, nil
}

// OpenTemp creates a Library over an empty in-memory directory.
// It is meant for tests and examples.
func OpenTemp() *Library {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/fortunes", 0o755); err != nil {
		panic(fmt.Sprintf("failed to create temp directory: %v", err))
	}
	lib, err := Open("/fortunes", WithFs(fs))
	if err != nil {
		panic(fmt.Sprintf("failed to create temp library: %v", err))
	}
	return lib
}

// Dir returns the directory the library reads from.
func (l *Library) Dir() string {
	return l.dir
}

// Fs returns the filesystem the library reads from.
func (l *Library) Fs() afero.Fs {
	return l.fs
}

// Get picks one entry uniformly over all entries of all sources.
//
// A sidecar found to disagree with its source is rebuilt and the pick is
// repeated; a source that cannot be repaired or read is left out of this call.
// Returns ErrDirectoryUnavailable or ErrEmptySourceSet when nothing can be picked.
func (l *Library) Get() (Fortune, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sources, err := l.sources()
	if err != nil {
		return Fortune{}, err
	}

	repaired := make(map[string]bool)
	for {
		src, index, err := Select(sources, l.rng)
		if err != nil {
			return Fortune{}, err
		}

		f, err := l.readEntry(src.Path, index)
		if err == nil {
			return f, nil
		}

		if !errors.Is(err, ErrCorruptSidecar) || repaired[src.Path] {
			l.log().Warn("excluding unreadable source",
				slog.String("source", src.Path),
				slog.Any("error", err))
			sources = without(sources, src.Path)
			continue
		}

		l.log().Warn("rebuilding corrupt sidecar",
			slog.String("source", src.Path),
			slog.Any("error", err))
		repaired[src.Path] = true

		count, err := l.rebuild(src.Path)
		if err != nil {
			l.log().Warn("excluding source after failed rebuild",
				slog.String("source", src.Path),
				slog.Any("error", err))
			sources = without(sources, src.Path)
			continue
		}
		sources = withCount(sources, src.Path, count)
	}
}

// GetFrom returns entry index of one source file, refreshing its sidecar first
// when it is stale. Index files are rejected with ErrNotSource.
func (l *Library) GetFrom(source string, index int) (Fortune, error) {
	if IsSidecar(filepath.Base(source)) {
		return Fortune{}, fmt.Errorf("%w: %s is an index file", ErrNotSource, source)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	count, err := l.entryCount(source)
	if err != nil {
		return Fortune{}, err
	}
	if index < 0 || index >= count {
		return Fortune{}, fmt.Errorf("%w: %d not in [0, %d) for %s", ErrEntryOutOfRange, index, count, source)
	}

	return l.readEntry(source, index)
}

// log returns the configured logger or a discarding one.
func (l *Library) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}
