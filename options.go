package fortune

import (
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/afero"
)

// WithFs sets a custom filesystem for the library.
// This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	lib, err := fortune.Open("/fortunes", fortune.WithFs(afero.NewMemMapFs()))
func WithFs(fs afero.Fs) Option {
	return func(l *Library) {
		l.fs = fs
	}
}

// WithRand sets the random source used to pick entries.
// The library takes ownership of rng; it must not be shared with other goroutines.
func WithRand(rng *rand.Rand) Option {
	return func(l *Library) {
		l.rng = rng
	}
}

// WithSeed makes picks reproducible: two libraries over the same files and
// opened with the same seed return the same sequence of fortunes.
func WithSeed(seed uint64) Option {
	return func(l *Library) {
		l.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithLogger sets the logger for rebuild and repair events.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithLineEnding sets the line terminator used in returned fortune text.
// The default is "\r\n".
func WithLineEnding(eol string) Option {
	return func(l *Library) {
		l.lineEnding = eol
	}
}

// WithLocking controls whether rebuilds hold an exclusive advisory lock on the
// source file. Locking is on by default and only applies to files on the OS
// filesystem of unix systems.
func WithLocking(enabled bool) Option {
	return func(l *Library) {
		l.locking = enabled
	}
}
