// Package history is an in-memory, browser-style navigation history.
package history

import "strings"

// Location is an addressable view: a path plus its raw query string
// (without the leading "?").
type Location struct {
	Path     string
	RawQuery string
}

// Parse splits s at the first "?". An empty path becomes "/".
func Parse(s string) Location {
	path, query, _ := strings.Cut(s, "?")
	if path == "" {
		path = "/"
	}
	return Location{Path: path, RawQuery: query}
}

func (l Location) String() string {
	if l.RawQuery == "" {
		return l.Path
	}
	return l.Path + "?" + l.RawQuery
}

// History holds the entries and the current position. It is not safe for
// concurrent use.
type History struct {
	entries []Location
	index   int
}

func New(initial Location) *History {
	return &History{entries: []Location{initial}}
}

func (h *History) Location() Location {
	return h.entries[h.index]
}

// Push adds a new entry after the current one and drops any forward entries.
func (h *History) Push(loc Location) {
	h.entries = append(h.entries[:h.index+1], loc)
	h.index++
}

// Replace rewrites the current entry without adding one.
func (h *History) Replace(loc Location) {
	h.entries[h.index] = loc
}

// Back moves to the previous entry. It reports false at the first entry.
func (h *History) Back() bool {
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Forward moves to the next entry. It reports false at the last entry.
func (h *History) Forward() bool {
	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

func (h *History) Len() int {
	return len(h.entries)
}
