// Package present formats artwork data for people: prices, dates, excerpts
// and initials shared by the CLI and the view server.
package present

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/HerbHall/galleria/pkg/models"
)

// NoPrice is shown for artworks without a price.
const NoPrice = "Price not specified"

// UnknownDate is shown when a timestamp is missing or unparseable.
const UnknownDate = "Unknown date"

// DateLayout renders dates as "January 2, 2006".
const DateLayout = "January 2, 2006"

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders a USD amount with thousands separators. A nil or zero
// price renders as NoPrice.
func FormatPrice(price *float64) string {
	if price == nil || *price == 0 {
		return NoPrice
	}
	p := *price
	sign := ""
	if p < 0 {
		sign, p = "-", -p
	}
	return sign + "$" + printer.Sprintf("%.2f", p)
}

// FormatArtworkPrice is FormatPrice applied to a.Price.
func FormatArtworkPrice(a *models.Artwork) string {
	return FormatPrice(a.Price)
}

// FormatDate renders an artwork timestamp, or UnknownDate.
func FormatDate(a *models.Artwork) string {
	t, ok := a.CreatedTime()
	if !ok {
		return UnknownDate
	}
	return FormatTime(t)
}

// FormatTime renders t in DateLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// TruncateText shortens s to at most limit runes followed by "...".
// Strings within the limit are returned unchanged.
func TruncateText(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:limit]), unicode.IsSpace) + "..."
}

// Initials returns up to two upper-case initials of name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}

// Plural formats a count with the singular or plural noun.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
