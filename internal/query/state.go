// Package query derives filtered, sorted and paginated views of an artwork
// snapshot. Everything in this package is pure: inputs are never mutated and
// no function blocks or fails.
package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/HerbHall/galleria/pkg/catalog"
)

// DefaultPageSize is used whenever a State carries a non-positive page size.
const DefaultPageSize = 12

// SortMode selects the ordering of a result set.
type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortPopular   SortMode = "popular"
	SortPriceAsc  SortMode = "priceAsc"
	SortPriceDesc SortMode = "priceDesc"
)

// SortModes lists every supported mode.
var SortModes = []SortMode{SortNewest, SortPopular, SortPriceAsc, SortPriceDesc}

// Valid reports whether m is a known sort mode.
func (m SortMode) Valid() bool {
	switch m {
	case SortNewest, SortPopular, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// Dimension is a bit set of filter dimensions.
type Dimension uint8

const (
	DimCategory Dimension = 1 << iota
	DimSearch
	DimPrice
)

// PriceRange is an inclusive [Min, Max] bound on the effective price.
// A range with Min > Max is empty and matches nothing.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FullPriceRange matches every non-negative price.
func FullPriceRange() PriceRange {
	return PriceRange{Min: 0, Max: math.MaxFloat64}
}

// Empty reports whether no price can fall inside r.
func (r PriceRange) Empty() bool {
	return r.Min > r.Max
}

// Contains reports whether price lies within r.
func (r PriceRange) Contains(price float64) bool {
	return r.Min <= price && price <= r.Max
}

// State is the immutable filter, sort and pagination selection driving a
// list view. Build one with NewState and derive variations with the With*
// methods. Disabled dimensions always pass, which lets a view that has no
// search box or price slider reuse the same engine.
type State struct {
	SearchTerm string     `json:"searchTerm"`
	Category   string     `json:"category"`
	PriceRange PriceRange `json:"priceRange"`
	SortMode   SortMode   `json:"sortMode"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	Disabled   Dimension  `json:"disabled,omitempty"`
}

// NewState returns the default selection: every category, no search term,
// the full price range, newest first, first page.
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Category:   catalog.All,
		PriceRange: FullPriceRange(),
		SortMode:   SortNewest,
		Page:       1,
		PageSize:   pageSize,
	}
}

// WithSearch returns a copy of s with the search term replaced.
func (s State) WithSearch(term string) State {
	s.SearchTerm = term
	return s
}

// WithCategory returns a copy of s filtered to category.
func (s State) WithCategory(category string) State {
	s.Category = category
	return s
}

// WithPriceRange returns a copy of s bounded to [lo, hi].
func (s State) WithPriceRange(lo, hi float64) State {
	s.PriceRange = PriceRange{Min: lo, Max: hi}
	return s
}

// WithSort returns a copy of s ordered by mode.
func (s State) WithSort(mode SortMode) State {
	s.SortMode = mode
	return s
}

// WithPage returns a copy of s positioned on page.
func (s State) WithPage(page int) State {
	s.Page = page
	return s
}

// WithPageSize returns a copy of s with a different page size.
func (s State) WithPageSize(size int) State {
	s.PageSize = size
	return s
}

// Only returns a copy of s in which only the given dimensions filter.
func (s State) Only(dims Dimension) State {
	s.Disabled = (DimCategory | DimSearch | DimPrice) &^ dims
	return s
}

// Active reports whether dimension d participates in filtering.
func (s State) Active(d Dimension) bool {
	return s.Disabled&d == 0
}

// normalize applies defaults to out-of-range fields. Page is clamped later,
// once the result count is known.
func (s State) normalize() State {
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Page < 1 {
		s.Page = 1
	}
	if !s.SortMode.Valid() {
		s.SortMode = SortNewest
	}
	if s.Category == "" {
		s.Category = catalog.All
	}
	return s
}

// Query string keys understood by ParseState.
const (
	ParamSearch   = "q"
	ParamCategory = "category"
	ParamMin      = "min"
	ParamMax      = "max"
	ParamSort     = "sort"
	ParamPage     = "page"
	ParamLimit    = "limit"
)

// ErrInvalidQuery wraps every ParseState failure.
var ErrInvalidQuery = errors.New("invalid query")

// MaxPageSize caps the limit accepted from query strings.
const MaxPageSize = 100

// ParseState builds a State from query parameters, starting from
// NewState(pageSize). Malformed numbers and unknown sort modes are reported
// as errors so callers can reject the request; absent keys keep defaults.
func ParseState(v url.Values, pageSize int) (State, error) {
	s := NewState(pageSize)
	s.SearchTerm = v.Get(ParamSearch)
	if c := v.Get(ParamCategory); c != "" {
		s.Category = c
	}
	if raw := v.Get(ParamSort); raw != "" {
		mode := SortMode(raw)
		if !mode.Valid() {
			return State{}, fmt.Errorf("%w: sort %q must be one of %v", ErrInvalidQuery, raw, SortModes)
		}
		s.SortMode = mode
	}
	var err error
	if s.PriceRange.Min, err = parseBound(v, ParamMin, s.PriceRange.Min); err != nil {
		return State{}, err
	}
	if s.PriceRange.Max, err = parseBound(v, ParamMax, s.PriceRange.Max); err != nil {
		return State{}, err
	}
	if s.Page, err = parsePositive(v, ParamPage, s.Page); err != nil {
		return State{}, err
	}
	if s.PageSize, err = parsePositive(v, ParamLimit, s.PageSize); err != nil {
		return State{}, err
	}
	s.PageSize = min(s.PageSize, MaxPageSize)
	return s, nil
}

// Values encodes the fields of s that differ from NewState(s.PageSize).
func (s State) Values() url.Values {
	def := NewState(s.PageSize)
	v := url.Values{}
	if s.SearchTerm != "" {
		v.Set(ParamSearch, s.SearchTerm)
	}
	if s.Category != "" && s.Category != def.Category {
		v.Set(ParamCategory, s.Category)
	}
	if s.PriceRange.Min != def.PriceRange.Min {
		v.Set(ParamMin, strconv.FormatFloat(s.PriceRange.Min, 'f', -1, 64))
	}
	if s.PriceRange.Max != def.PriceRange.Max {
		v.Set(ParamMax, strconv.FormatFloat(s.PriceRange.Max, 'f', -1, 64))
	}
	if s.SortMode != "" && s.SortMode != def.SortMode {
		v.Set(ParamSort, string(s.SortMode))
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	v.Set(ParamLimit, strconv.Itoa(s.PageSize))
	return v
}

func parseBound(v url.Values, key string, def float64) (float64, error) {
	raw := v.Get(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s %q must be a non-negative number", ErrInvalidQuery, key, raw)
	}
	return f, nil
}

func parsePositive(v url.Values, key string, def int) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s %q must be a positive integer", ErrInvalidQuery, key, raw)
	}
	return n, nil
}
