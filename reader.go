package fortune

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// attributionMarker starts the optional last line naming the author.
const attributionMarker = "--"

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// readEntry loads entry index of source through its sidecar.
func (l *Library) readEntry(source string, index int) (Fortune, error) {
	rec, err := l.readRecord(source, index)
	if err != nil {
		return Fortune{}, err
	}

	f, err := l.fs.Open(source)
	if err != nil {
		return Fortune{}, fmt.Errorf("failed to open source %s: %w", source, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fortune{}, fmt.Errorf("failed to stat source %s: %w", source, err)
	}
	if rec.Offset < 0 || rec.Length < 0 || rec.End() > info.Size() {
		return Fortune{}, fmt.Errorf("%w: %s: record %d (offset %d, length %d) outside %d bytes",
			ErrCorruptSidecar, source, index, rec.Offset, rec.Length, info.Size())
	}

	raw := make([]byte, rec.Length)
	if err := readFullAt(f, raw, rec.Offset); err != nil {
		return Fortune{}, fmt.Errorf("failed to read entry from %s: %w", source, err)
	}

	return parseEntry(raw, l.lineEnding), nil
}

// readRecord reads record index from the sidecar of source.
func (l *Library) readRecord(source string, index int) (Record, error) {
	f, err := l.fs.Open(SidecarPath(source))
	if err != nil {
		return Record{}, fmt.Errorf("failed to open sidecar for %s: %w", source, err)
	}
	defer f.Close()

	var buf [RecordSize]byte
	if err := readFullAt(f, buf[:], int64(index)*RecordSize); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, fmt.Errorf("%w: %s: no record %d", ErrCorruptSidecar, source, index)
		}
		return Record{}, fmt.Errorf("failed to read sidecar for %s: %w", source, err)
	}

	var rec Record
	rec.Unmarshal(buf[:])
	return rec, nil
}

// readFullAt fills buf from r at off.
func readFullAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// parseEntry turns the raw bytes of an entry into a Fortune. Line endings are
// unified to eol, and a last non-blank line starting with "--" becomes the
// author, dropping it and the blank lines above it from the text.
func parseEntry(raw []byte, eol string) Fortune {
	text := strings.ToValidUTF8(string(raw), "\uFFFD")
	lines := strings.Split(lineBreaks.Replace(text), "\n")

	last := len(lines) - 1
	for last >= 0 && strings.TrimSpace(lines[last]) == "" {
		last--
	}

	if last >= 0 {
		line := strings.TrimSpace(lines[last])
		if strings.HasPrefix(line, attributionMarker) {
			body := lines[:last]
			for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
				body = body[:len(body)-1]
			}
			return Fortune{
				Text:   strings.Join(body, eol),
				Author: strings.TrimSpace(line[len(attributionMarker):]),
			}
		}
	}

	return Fortune{Text: strings.Join(lines, eol)}
}
