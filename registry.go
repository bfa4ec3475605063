package fortune

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Source is a fortune file and the number of entries in its index.
type Source struct {
	Path  string
	Count int
}

// sidecarState describes a sidecar as found on disk.
type sidecarState struct {
	fresh  bool
	size   int64
	reason string // why the sidecar is not fresh
}

// Sources returns every source file of the directory with its entry count,
// ordered by file name. Sidecars that are missing, older than their source or
// not a whole number of records are rebuilt first. A source that cannot be
// indexed is logged and left out.
func (l *Library) Sources() ([]Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sources()
}

// RebuildAll re-indexes every source of the directory regardless of the state
// of its sidecar. Sources that fail are reported in a *BuildError next to the
// sources that succeeded.
func (l *Library) RebuildAll() ([]Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	paths, err := l.sourcePaths()
	if err != nil {
		return nil, err
	}

	var errs []error
	result := make([]Source, 0, len(paths))
	for _, path := range paths {
		count, err := l.rebuild(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result = append(result, Source{Path: path, Count: count})
	}

	return result, newBuildError(errs)
}

func (l *Library) sources() ([]Source, error) {
	paths, err := l.sourcePaths()
	if err != nil {
		return nil, err
	}

	result := make([]Source, 0, len(paths))
	for _, path := range paths {
		count, err := l.entryCount(path)
		if err != nil {
			l.log().Warn("skipping source",
				slog.String("source", path),
				slog.Any("error", err))
			continue
		}
		result = append(result, Source{Path: path, Count: count})
	}

	return result, nil
}

// sourcePaths lists the regular files of the directory that are not sidecars.
// The listing is not recursive and is sorted by name.
func (l *Library) sourcePaths() ([]string, error) {
	infos, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, l.dir, err)
	}

	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() || IsSidecar(info.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, info.Name()))
	}
	return paths, nil
}

// entryCount returns the number of indexed entries of source, rebuilding its
// sidecar when it is not fresh.
func (l *Library) entryCount(source string) (int, error) {
	info, err := l.fs.Stat(source)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source %s: %w", source, err)
	}

	state := l.sidecarState(source, info)
	if state.fresh {
		return int(state.size / RecordSize), nil
	}

	l.log().Debug("sidecar needs rebuild",
		slog.String("source", source),
		slog.String("reason", state.reason))
	return l.rebuild(source)
}

// sidecarState inspects the sidecar of source without touching it.
func (l *Library) sidecarState(source string, srcInfo os.FileInfo) sidecarState {
	info, err := l.fs.Stat(SidecarPath(source))
	switch {
	case err != nil:
		return sidecarState{reason: "missing"}
	case info.ModTime().Before(srcInfo.ModTime()):
		return sidecarState{size: info.Size(), reason: "older than source"}
	case info.Size()%RecordSize != 0:
		return sidecarState{size: info.Size(), reason: "size is not a multiple of the record size"}
	}
	return sidecarState{fresh: true, size: info.Size()}
}

// IsSidecar reports whether a file name belongs to an index file.
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, SidecarSuffix)
}

// without returns sources minus the one at path.
func without(sources []Source, path string) []Source {
	result := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Path != path {
			result = append(result, s)
		}
	}
	return result
}

// withCount returns sources with the count of path replaced.
func withCount(sources []Source, path string, count int) []Source {
	result := make([]Source, len(sources))
	copy(result, sources)
	for i := range result {
		if result[i].Path == path {
			result[i].Count = count
		}
	}
	return result
}
