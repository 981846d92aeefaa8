package query

import (
	"slices"

	"github.com/HerbHall/galleria/pkg/models"
)

// Result is one page of a query.
type Result struct {
	Items        []models.Artwork `json:"items"`
	TotalMatched int              `json:"totalMatched"`
	TotalPages   int              `json:"totalPages"`
	Page         int              `json:"page"`
	PageSize     int              `json:"pageSize"`
}

// Engine evaluates States against a fixed artwork snapshot. The snapshot is
// never modified; every call derives a fresh view.
type Engine struct {
	artworks []models.Artwork
}

// NewEngine creates an Engine over artworks.
func NewEngine(artworks []models.Artwork) *Engine {
	return &Engine{artworks: artworks}
}

// Len returns the snapshot size.
func (e *Engine) Len() int {
	return len(e.artworks)
}

// Run filters, sorts and paginates the snapshot. The requested page is
// clamped to [1, TotalPages]; TotalPages is at least 1 so an empty snapshot
// yields page 1 of 1 with no items.
func (e *Engine) Run(s State) Result {
	s = s.normalize()
	candidates := e.candidates(s)

	total := len(candidates)
	pages := total / s.PageSize
	if total%s.PageSize != 0 {
		pages++
	}
	pages = max(pages, 1)
	page := min(s.Page, pages)

	start := min((page-1)*s.PageSize, total)
	end := min(start+s.PageSize, total)

	items := make([]models.Artwork, 0, end-start)
	for _, c := range candidates[start:end] {
		items = append(items, *c.artwork)
	}

	return Result{
		Items:        items,
		TotalMatched: total,
		TotalPages:   pages,
		Page:         page,
		PageSize:     s.PageSize,
	}
}

// Candidates returns every artwork that passes the active filters, in sort
// order, without pagination.
func (e *Engine) Candidates(s State) []models.Artwork {
	candidates := e.candidates(s.normalize())
	out := make([]models.Artwork, len(candidates))
	for i, c := range candidates {
		out[i] = *c.artwork
	}
	return out
}

// Count returns the number of artworks passing the active filters.
func (e *Engine) Count(s State) int {
	s = s.normalize()
	search := newSearcher(s.SearchTerm)
	n := 0
	for i := range e.artworks {
		if e.matches(&e.artworks[i], s, search) {
			n++
		}
	}
	return n
}

type candidate struct {
	artwork *models.Artwork
	key     sortKey
}

func (e *Engine) candidates(s State) []candidate {
	if s.Active(DimPrice) && s.PriceRange.Empty() {
		return nil
	}

	search := newSearcher(s.SearchTerm)
	out := make([]candidate, 0, len(e.artworks))
	for i := range e.artworks {
		a := &e.artworks[i]
		if !e.matches(a, s, search) {
			continue
		}
		out = append(out, candidate{artwork: a, key: keyFor(s.SortMode, a)})
	}

	slices.SortStableFunc(out, func(x, y candidate) int {
		return compareKeys(s.SortMode, x.key, y.key)
	})
	return out
}

// matches applies the active predicates, cheapest first.
func (e *Engine) matches(a *models.Artwork, s State, search *searcher) bool {
	if s.Active(DimCategory) && !MatchesCategory(a, s.Category) {
		return false
	}
	if s.Active(DimPrice) && !MatchesPriceRange(a, s.PriceRange) {
		return false
	}
	if s.Active(DimSearch) && !search.match(a) {
		return false
	}
	return true
}

// Run evaluates s against artworks. See Engine.Run.
func Run(artworks []models.Artwork, s State) Result {
	return NewEngine(artworks).Run(s)
}
