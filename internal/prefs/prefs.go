// Package prefs persists the last used trigger-list filters so they can
// seed a visit whose location does not specify them.
package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"moiratui/internal/query"
)

// Key is the storage key of the persisted record.
const Key = "moiraSettings"

// KV is the persistent storage the preferences live in.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Preference is the sticky part of the filters. Page and search text are
// per visit and are not kept.
type Preference struct {
	Tags         []string
	OnlyProblems bool
}

// FromFilters drops the per-visit fields of f.
func FromFilters(f query.Filters) Preference {
	return Preference{Tags: slices.Clone(f.Tags), OnlyProblems: f.OnlyProblems}
}

// record is the stored JSON shape. SearchText is always written empty and
// ignored on load.
type record struct {
	Tags         []string `json:"tags"`
	OnlyProblems bool     `json:"onlyProblems"`
	SearchText   string   `json:"searchText"`
}

type Store struct {
	kv     KV
	logger *slog.Logger
}

func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger}
}

// Load returns the stored preference. Any read or decode problem is
// treated as "nothing stored".
func (s *Store) Load() (Preference, bool) {
	raw, ok, err := s.kv.Get(Key)
	if err != nil {
		s.logger.Debug("reading preferences", "error", err)
		return Preference{}, false
	}
	if !ok {
		return Preference{}, false
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.Debug("ignoring malformed preferences", "error", err)
		return Preference{}, false
	}
	return Preference{Tags: rec.Tags, OnlyProblems: rec.OnlyProblems}, true
}

// Save overwrites the stored record with p.
func (s *Store) Save(p Preference) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(record{Tags: tags, OnlyProblems: p.OnlyProblems})
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := s.kv.Set(Key, string(data)); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
