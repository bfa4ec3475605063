package fortune

import (
	"io"
	"sync"
)

// Default size for the buffer used when scanning source files
const defaultBufferSize = 32 * 1024 // 32KB

// noNextEntry is the NextStart of the last break point in a source.
const noNextEntry = -1

// bufferPool is a pool of byte slices used for file I/O during scanning
var bufferPool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, defaultBufferSize)
		return &buffer
	},
}

// BreakPoint is the boundary between two entries of a source file.
// PrevEnd is the exclusive end offset of the entry before the delimiter line,
// NextStart the offset of the first byte after it, or -1 after the last entry.
type BreakPoint struct {
	PrevEnd   int64
	NextStart int64
}

// Last reports whether no entry follows this break point.
func (bp BreakPoint) Last() bool {
	return bp.NextStart == noNextEntry
}

type scanState uint8

const (
	stateScanning  scanState = iota // inside a line
	stateLineStart                  // first byte of the content
	stateAfterCR                    // after a '\r' not yet known to be part of "\r\n"
	stateAfterLF                    // after a lone '\n'
	stateAfterCRLF                  // after "\r\n"
	stateDelim                      // after a '%' that starts a line
	stateDelimCR                    // after a line-initial "%\r"
)

// transition is the outcome of feeding one byte to the scanner.
type transition struct {
	next scanState

	// mark is set on a line-initial '%'. term is the length of the line
	// terminator in front of it, so the previous entry ends term bytes before
	// the '%'.
	mark bool
	term int

	// emit is set when a delimiter line is complete. With startHere the next
	// entry starts at the current byte instead of the one after it.
	emit      bool
	startHere bool
}

// terminatorLen is the length of the line terminator that led into s.
func terminatorLen(s scanState) int {
	switch s {
	case stateAfterCR, stateAfterLF:
		return 1
	case stateAfterCRLF:
		return 2
	}
	return 0
}

func atLineStart(s scanState) bool {
	switch s {
	case stateLineStart, stateAfterCR, stateAfterLF, stateAfterCRLF:
		return true
	}
	return false
}

// step is the delimiter recognizer: a pure function of the current state and
// the next byte.
func step(s scanState, b byte) transition {
	switch s {
	case stateDelim:
		switch b {
		case '\n':
			return transition{next: stateAfterLF, emit: true}
		case '\r':
			return transition{next: stateDelimCR}
		}
		// "%" followed by text is an ordinary line.
		return transition{next: stateScanning}
	case stateDelimCR:
		if b == '\n' {
			return transition{next: stateAfterLF, emit: true}
		}
		// "%\r" alone ends the delimiter line; b belongs to the next entry.
		t := step(stateAfterCR, b)
		t.emit, t.startHere = true, true
		return t
	}

	if b == '%' && atLineStart(s) {
		return transition{next: stateDelim, mark: true, term: terminatorLen(s)}
	}
	switch b {
	case '\r':
		return transition{next: stateAfterCR}
	case '\n':
		if s == stateAfterCR {
			return transition{next: stateAfterCRLF}
		}
		return transition{next: stateAfterLF}
	}
	return transition{next: stateScanning}
}

// breakScanner yields the break points of a source one at a time.
// It is not restartable.
type breakScanner struct {
	r     io.Reader
	buf   []byte
	n, i  int   // bytes buffered, read position in buf
	pos   int64 // source offset of buf[i]
	state scanState
	end   int64 // end marked by the last line-initial '%'
	err   error // sticky read error, io.EOF included
	done  bool
}

// newBreakScanner scans r, whose first byte sits at offset base in the source.
func newBreakScanner(r io.Reader, base int64, buf []byte) *breakScanner {
	return &breakScanner{
		r:     r,
		buf:   buf,
		pos:   base,
		state: stateLineStart,
	}
}

// Next returns the next break point. After the break point with NextStart -1
// it returns io.EOF.
func (s *breakScanner) Next() (BreakPoint, error) {
	if s.done {
		return BreakPoint{}, io.EOF
	}

	for {
		if s.i == s.n {
			if s.err != nil {
				break
			}
			s.n, s.err = s.r.Read(s.buf)
			s.i = 0
			continue
		}

		b := s.buf[s.i]
		off := s.pos
		s.i++
		s.pos++

		t := step(s.state, b)
		s.state = t.next

		var bp BreakPoint
		if t.emit {
			start := off + 1
			if t.startHere {
				start = off
			}
			bp = BreakPoint{PrevEnd: s.end, NextStart: start}
		}
		if t.mark {
			s.end = off - int64(t.term)
		}
		if t.emit {
			return bp, nil
		}
	}

	s.done = true
	if s.err != io.EOF {
		return BreakPoint{}, s.err
	}
	return BreakPoint{PrevEnd: s.finalEnd(), NextStart: noNextEntry}, nil
}

// finalEnd is the end of the last entry: the end of the stream without its
// trailing line terminator, or the marked end when the stream stops on a
// delimiter line that has no terminator.
func (s *breakScanner) finalEnd() int64 {
	switch s.state {
	case stateDelim, stateDelimCR:
		return s.end
	}
	return s.pos - int64(terminatorLen(s.state))
}
