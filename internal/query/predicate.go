package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/HerbHall/galleria/pkg/catalog"
	"github.com/HerbHall/galleria/pkg/models"
)

// MatchesCategory reports whether a belongs to category. The All sentinel
// matches everything; otherwise the comparison is exact and case-sensitive.
func MatchesCategory(a *models.Artwork, category string) bool {
	return category == catalog.All || a.Category == category
}

// MatchesSearch reports whether term occurs in the title or artist name of a,
// ignoring case. An empty term matches everything.
func MatchesSearch(a *models.Artwork, term string) bool {
	return newSearcher(term).match(a)
}

// MatchesPriceRange reports whether the effective price of a lies in r.
// Artworks without a price are treated as costing 0.
func MatchesPriceRange(a *models.Artwork, r PriceRange) bool {
	return r.Contains(a.EffectivePrice())
}

// folder applies Unicode case folding. Fold casers are stateless and safe
// for concurrent use.
var folder = cases.Fold()

// searcher holds a search term folded once for a whole scan.
type searcher struct {
	term string
}

func newSearcher(term string) *searcher {
	if term == "" {
		return &searcher{}
	}
	return &searcher{term: folder.String(term)}
}

func (s *searcher) match(a *models.Artwork) bool {
	if s.term == "" {
		return true
	}
	return strings.Contains(folder.String(a.Title), s.term) ||
		strings.Contains(folder.String(a.ArtistName), s.term)
}
