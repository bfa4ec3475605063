package fortune

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// indexResult summarizes one pass of writeIndex.
type indexResult struct {
	Entries   int // records written
	Oversized int // entries longer than MaxEntryLength, left out
}

// Rebuild re-indexes a source file unconditionally and returns the number of
// entries recorded in its sidecar.
func (l *Library) Rebuild(source string) (int, error) {
	if IsSidecar(filepath.Base(source)) {
		return 0, fmt.Errorf("%w: %s is an index file", ErrNotSource, source)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rebuild(source)
}

// rebuild writes the new sidecar next to the source under a temporary name
// and renames it into place, so the previous sidecar stays intact until the
// new one is complete.
func (l *Library) rebuild(source string) (int, error) {
	src, err := l.fs.Open(source)
	if err != nil {
		return 0, fmt.Errorf("failed to open source %s: %w", source, err)
	}
	defer src.Close()

	srcInfo, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source %s: %w", source, err)
	}

	if l.locking {
		unlock, err := lockFile(src)
		if err != nil {
			return 0, fmt.Errorf("failed to lock source %s: %w", source, err)
		}
		defer unlock()
	}

	// The pattern keeps the sidecar suffix so a leftover temp file is never
	// mistaken for a source.
	tmp, err := afero.TempFile(l.fs, filepath.Dir(source), "."+filepath.Base(source)+"-*"+SidecarSuffix)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary sidecar for %s: %w", source, err)
	}
	tmpPath := tmp.Name()

	res, err := writeIndex(src, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = l.fs.Remove(tmpPath)
		return 0, fmt.Errorf("failed to index %s: %w", source, err)
	}

	// Temp files are created owner-only; readers of the source must be able
	// to read its sidecar too.
	if err := l.fs.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		_ = l.fs.Remove(tmpPath)
		return 0, fmt.Errorf("failed to set sidecar mode for %s: %w", source, err)
	}

	if err := l.fs.Rename(tmpPath, SidecarPath(source)); err != nil {
		_ = l.fs.Remove(tmpPath)
		return 0, fmt.Errorf("failed to replace sidecar for %s: %w", source, err)
	}

	if res.Oversized > 0 {
		l.log().Debug("entries too long to index",
			slog.String("source", source),
			slog.Int("skipped", res.Oversized),
			slog.Int("max_length", MaxEntryLength))
	}
	l.log().Debug("rebuilt index",
		slog.String("source", source),
		slog.Int("entries", res.Entries))

	return res.Entries, nil
}

// writeIndex scans src from its start and writes one record per entry to dst.
func writeIndex(src io.ReadSeeker, dst io.Writer) (indexResult, error) {
	var res indexResult

	start, err := skipBOM(src)
	if err != nil {
		return res, fmt.Errorf("failed to read source header: %w", err)
	}

	bufPtr := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufPtr)

	scanner := newBreakScanner(src, start, *bufPtr)
	w := bufio.NewWriter(dst)

	var buf [RecordSize]byte
	prevStart := start
	for {
		bp, err := scanner.Next()
		if err != nil {
			return res, fmt.Errorf("failed to scan source: %w", err)
		}

		n := bp.PrevEnd - prevStart
		switch {
		case encodable(n):
			Record{Offset: prevStart, Length: int16(n)}.Marshal(buf[:])
			if _, err := w.Write(buf[:]); err != nil {
				return res, fmt.Errorf("failed to write record: %w", err)
			}
			res.Entries++
		case n > MaxEntryLength:
			res.Oversized++
		}

		if bp.Last() {
			break
		}
		prevStart = bp.NextStart
	}

	if err := w.Flush(); err != nil {
		return res, fmt.Errorf("failed to flush sidecar: %w", err)
	}
	return res, nil
}

// skipBOM leaves r positioned at the first content byte and returns its offset.
func skipBOM(r io.ReadSeeker) (int64, error) {
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(r, head)
	if n == len(utf8BOM) && bytes.Equal(head, utf8BOM) {
		return int64(n), nil
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return 0, nil
}
