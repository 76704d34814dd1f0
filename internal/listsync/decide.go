package listsync

import (
	"moiratui/internal/prefs"
	"moiratui/internal/query"
	"moiratui/internal/tags"
)

// Step is what a reconciliation pass does next.
type Step int

const (
	// StepFetch means the filters are clean and data can be loaded.
	StepFetch Step = iota
	// StepCanonicalize rewrites a query string that decodes fine but is not
	// in canonical form (malformed page, unordered keys, escaped brackets).
	StepCanonicalize
	// StepMergePreference surfaces stored tags or the problems-only flag
	// into a location that does not specify them.
	StepMergePreference
	// StepCorrectTags drops tags the server does not know.
	StepCorrectTags
)

func (s Step) String() string {
	switch s {
	case StepFetch:
		return "fetch"
	case StepCanonicalize:
		return "canonicalize"
	case StepMergePreference:
		return "merge-preference"
	case StepCorrectTags:
		return "correct-tags"
	default:
		return "unknown"
	}
}

// Redirects reports whether the step replaces the location and ends the pass.
func (s Step) Redirects() bool {
	return s != StepFetch
}

// Decision is the command a decide function hands to the controller.
// For redirecting steps Filters is the redirect target; for StepFetch it
// is the filters to load data for.
type Decision struct {
	Step    Step
	Filters query.Filters
	// Persist asks for Filters to be saved as the new preference before
	// redirecting.
	Persist bool
}

// DecideLocation covers parsing and the preference merge. havePref is
// false when nothing usable is stored.
func DecideLocation(rawQuery string, pref prefs.Preference, havePref bool) Decision {
	filters := query.Decode(rawQuery)

	if havePref {
		merged := filters
		if len(filters.Tags) == 0 && len(pref.Tags) > 0 {
			merged = merged.WithTags(pref.Tags)
		}
		if !filters.OnlyProblems && pref.OnlyProblems {
			merged.OnlyProblems = true
		}
		if !merged.Equal(filters) {
			return Decision{Step: StepMergePreference, Filters: merged, Persist: true}
		}
	}

	if _, ok := query.Canonical(rawQuery); !ok {
		return Decision{Step: StepCanonicalize, Filters: filters}
	}
	return Decision{Step: StepFetch, Filters: filters}
}

// DecideTags checks the requested tags against the catalog. The corrected
// tags are persisted so a stale stored tag cannot be merged back in.
func DecideTags(filters query.Filters, catalog []string) Decision {
	res := tags.Reconcile(filters.Tags, catalog)
	if res.Truncated {
		return Decision{Step: StepCorrectTags, Filters: filters.WithTags(res.Valid), Persist: true}
	}
	return Decision{Step: StepFetch, Filters: filters}
}
