// Package query converts between trigger-list filters and the location
// query string that carries them.
//
// Tags use indexed array keys (tags[0]=cpu&tags[1]=disk) so that a tag
// containing a separator character is never split.
package query

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
)

const (
	keyTags         = "tags"
	keyOnlyProblems = "onlyProblems"
	keyPage         = "page"
	keySearchText   = "searchText"

	// maxTagIndex bounds tags[N]. It stays under the form decoder's array
	// limit, past which the decoder drops every indexed tag.
	maxTagIndex = 1000

	// StartPage is the first human-facing page.
	StartPage = 1
)

// Filters is what the user is asking to see.
type Filters struct {
	Page         int
	Tags         []string
	OnlyProblems bool
	SearchText   string
}

// Default returns the filters of an empty query string.
func Default() Filters {
	return Filters{Page: StartPage}
}

// Equal reports value equality. A nil and an empty tag list are equal.
func (f Filters) Equal(o Filters) bool {
	return f.Page == o.Page &&
		f.OnlyProblems == o.OnlyProblems &&
		f.SearchText == o.SearchText &&
		slices.Equal(f.Tags, o.Tags)
}

// WithTags returns a copy of f with tags replaced.
func (f Filters) WithTags(tags []string) Filters {
	if len(tags) == 0 {
		f.Tags = nil
		return f
	}
	f.Tags = slices.Clone(tags)
	return f
}

// wireFilters is the query string as the form decoder sees it. Scalars stay
// strings so that malformed values can fall back to defaults.
type wireFilters struct {
	Tags         []string `form:"tags"`
	OnlyProblems string   `form:"onlyProblems"`
	Page         string   `form:"page"`
	SearchText   string   `form:"searchText"`
}

var decoder = form.NewDecoder()

// Decode parses a raw query string. It never fails: malformed values fall
// back to their defaults.
func Decode(raw string) Filters {
	raw = strings.TrimPrefix(raw, "?")
	// ParseQuery keeps going past a bad escape and returns what it could parse.
	values, _ := url.ParseQuery(raw)
	known, plain := splitValues(values)

	var w wireFilters
	// splitValues already dropped every key the decoder could reject.
	_ = decoder.Decode(&w, known)

	return Filters{
		Page:         decodePage(w.Page),
		Tags:         joinTags(w.Tags, plain),
		OnlyProblems: decodeBool(w.OnlyProblems),
		SearchText:   CleanSearchText(w.SearchText),
	}
}

// Encode serializes f in canonical form.
func Encode(f Filters) string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	for i, tag := range f.Tags {
		add(keyTags+"["+strconv.Itoa(i)+"]", tag)
	}
	add(keyOnlyProblems, strconv.FormatBool(f.OnlyProblems))
	page := f.Page
	if page < StartPage {
		page = StartPage
	}
	add(keyPage, strconv.Itoa(page))
	if f.SearchText != "" {
		add(keySearchText, f.SearchText)
	}
	return b.String()
}

// Canonical returns the canonical form of raw and whether raw already is
// in that form.
func Canonical(raw string) (string, bool) {
	canonical := Encode(Decode(raw))
	return canonical, strings.TrimPrefix(raw, "?") == canonical
}

// CleanSearchText trims s and collapses whitespace runs to one space.
func CleanSearchText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func decodePage(s string) int {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return StartPage
	}
	n = math.Floor(math.Abs(n))
	if n < StartPage {
		return StartPage
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func decodeBool(s string) bool {
	return s != "" && s != "false"
}

// splitValues keeps the keys the form decoder is handed: the scalar keys
// and well-formed indexed tag keys. The decoder panics on unbalanced
// brackets, so any other key is dropped here. Non-indexed tag values
// (tags=x, tags[]=x) are returned separately because the decoder would let
// an indexed key overwrite them by position.
func splitValues(values url.Values) (url.Values, []string) {
	known := url.Values{}
	var plain []string
	for key, vals := range values {
		switch {
		case key == keyOnlyProblems || key == keyPage || key == keySearchText:
			known[key] = vals
		case isIndexedTagKey(key):
			known[key] = vals
		}
	}
	for _, key := range []string{keyTags, keyTags + "[]"} {
		plain = append(plain, values[key]...)
	}
	return known, plain
}

// isIndexedTagKey reports whether key is tags[N] with N a decimal index
// below maxTagIndex.
func isIndexedTagKey(key string) bool {
	index, ok := strings.CutPrefix(key, keyTags+"[")
	if !ok {
		return false
	}
	index, ok = strings.CutSuffix(index, "]")
	if !ok || index == "" {
		return false
	}
	n, err := strconv.ParseUint(index, 10, 31)
	return err == nil && n < maxTagIndex
}

// joinTags appends plain after the indexed tags. Holes left by sparse
// indexes (tags[0]=a&tags[5]=b) and empty values are dropped.
func joinTags(indexed, plain []string) []string {
	var tags []string
	for _, list := range [][]string{indexed, plain} {
		for _, tag := range list {
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
