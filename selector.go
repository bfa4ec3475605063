package fortune

import "math/rand/v2"

// Select draws one entry uniformly over the concatenated index space of all
// sources and returns the source holding it with the entry's index inside
// that source. The order of sources decides which draw maps to which entry,
// so it must not change between the draw and the walk.
//
// Returns ErrEmptySourceSet when the sources hold no entries at all.
func Select(sources []Source, rng *rand.Rand) (Source, int, error) {
	total := 0
	for _, s := range sources {
		total += s.Count
	}
	if total <= 0 {
		return Source{}, 0, ErrEmptySourceSet
	}

	r := rng.IntN(total)
	for _, s := range sources {
		if r < s.Count {
			return s, r, nil
		}
		r -= s.Count
	}

	// unreachable: r < total
	return Source{}, 0, ErrEmptySourceSet
}
