package fortune

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// dayLayout is the calendar-day key hashed by DailySeed.
const dayLayout = "2006-01-02"

// DailySeed returns a seed that is the same for every instant of t's calendar
// day in t's location. Use it with WithSeed to get one fortune per day:
//
//	lib, err := fortune.Open(dir, fortune.WithSeed(fortune.DailySeed(time.Now())))
func DailySeed(t time.Time) uint64 {
	return SeedFromString(t.Format(dayLayout))
}

// SeedFromString derives a seed from an arbitrary string using xxHash64.
func SeedFromString(s string) uint64 {
	return xxhash.Sum64String(s)
}
