package query

import (
	"cmp"
	"time"

	"github.com/HerbHall/galleria/pkg/models"
)

// sortKey is the precomputed ordering key of one artwork for one sort mode.
// Timestamps are parsed once per artwork rather than once per comparison.
type sortKey struct {
	created    time.Time
	hasCreated bool
	n          float64
}

func keyFor(mode SortMode, a *models.Artwork) sortKey {
	switch mode {
	case SortPopular:
		return sortKey{n: float64(a.LikeCount())}
	case SortPriceAsc, SortPriceDesc:
		return sortKey{n: a.EffectivePrice()}
	default:
		t, ok := a.CreatedTime()
		return sortKey{created: t, hasCreated: ok}
	}
}

// compareKeys returns a negative number when x sorts before y.
func compareKeys(mode SortMode, x, y sortKey) int {
	switch mode {
	case SortPopular, SortPriceDesc:
		return cmp.Compare(y.n, x.n)
	case SortPriceAsc:
		return cmp.Compare(x.n, y.n)
	default:
		// Newest first; a missing or malformed timestamp is the oldest instant.
		switch {
		case !x.hasCreated && !y.hasCreated:
			return 0
		case !x.hasCreated:
			return 1
		case !y.hasCreated:
			return -1
		}
		return y.created.Compare(x.created)
	}
}

// Compare orders a before b under mode, returning a negative number, zero or
// a positive number. Unknown modes order as SortNewest. Equal keys compare
// as zero so a stable sort keeps input order for ties.
func Compare(mode SortMode, a, b *models.Artwork) int {
	return compareKeys(mode, keyFor(mode, a), keyFor(mode, b))
}
