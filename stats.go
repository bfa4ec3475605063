package fortune

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Stats represents index statistics for a fortune directory.
type Stats struct {
	Sources      int   // Number of source files
	Entries      int   // Entries recorded in fresh sidecars
	Stale        int   // Sources whose sidecar would be rebuilt on the next pick
	SourceBytes  int64 // Total size of all source files
	SidecarBytes int64 // Total size of all sidecars, stale ones included
}

// SourceInfo describes one source file and the state of its sidecar.
type SourceInfo struct {
	Path    string
	Size    int64
	Entries int    // Entries in the sidecar, 0 when stale
	Fresh   bool   // Sidecar can be used as is
	Reason  string // Why the sidecar is not fresh
}

// Stats returns statistics about the directory without rebuilding anything.
func (l *Library) Stats() (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{}
	err := l.walkSources(func(si SourceInfo, sidecarSize int64) error {
		stats.Sources++
		stats.SourceBytes += si.Size
		stats.SidecarBytes += sidecarSize
		if si.Fresh {
			stats.Entries += si.Entries
		} else {
			stats.Stale++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}

// Inspect returns the state of every source without rebuilding anything.
func (l *Library) Inspect() ([]SourceInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var infos []SourceInfo
	err := l.walkSources(func(si SourceInfo, _ int64) error {
		infos = append(infos, si)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return infos, nil
}

// Clean removes every sidecar of the directory, temporary ones included.
// Returns the number of files removed.
func (l *Library) Clean() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	infos, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, l.dir, err)
	}

	count := 0
	for _, info := range infos {
		if info.IsDir() || !IsSidecar(info.Name()) {
			continue
		}
		if err := l.fs.Remove(filepath.Join(l.dir, info.Name())); err != nil {
			return count, fmt.Errorf("failed to remove sidecar %s: %w", info.Name(), err)
		}
		count++
	}

	return count, nil
}

// walkSources calls fn for each source with the size of its sidecar.
func (l *Library) walkSources(fn func(si SourceInfo, sidecarSize int64) error) error {
	paths, err := l.sourcePaths()
	if err != nil {
		return err
	}

	for _, path := range paths {
		info, err := l.fs.Stat(path)
		if err != nil {
			// Removed since the listing
			continue
		}

		state := l.sidecarState(path, info)
		si := SourceInfo{
			Path:   path,
			Size:   info.Size(),
			Fresh:  state.fresh,
			Reason: state.reason,
		}
		if state.fresh {
			si.Entries = int(state.size / RecordSize)
		}

		if err := fn(si, state.size); err != nil {
			return err
		}
	}

	return nil
}
