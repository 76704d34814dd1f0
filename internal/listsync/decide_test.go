package listsync

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"moiratui/internal/prefs"
	"moiratui/internal/query"
)

func TestDecideLocation(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		pref     prefs.Preference
		havePref bool
		want     Decision
	}{
		{
			name: "canonical without preference",
			raw:  "tags[0]=cpu&onlyProblems=false&page=2",
			want: Decision{Step: StepFetch, Filters: query.Filters{Page: 2, Tags: []string{"cpu"}}},
		},
		{
			name: "malformed page",
			raw:  "tags[0]=cpu&page=abc",
			want: Decision{Step: StepCanonicalize, Filters: query.Filters{Page: 1, Tags: []string{"cpu"}}},
		},
		{
			name: "empty query",
			raw:  "",
			want: Decision{Step: StepCanonicalize, Filters: query.Default()},
		},
		{
			name:     "stored problems flag",
			raw:      "onlyProblems=false",
			pref:     prefs.Preference{OnlyProblems: true},
			havePref: true,
			want:     Decision{Step: StepMergePreference, Filters: query.Filters{Page: 1, OnlyProblems: true}, Persist: true},
		},
		{
			name:     "stored tags fill empty tags",
			raw:      "onlyProblems=false&page=4",
			pref:     prefs.Preference{Tags: []string{"disk"}},
			havePref: true,
			want:     Decision{Step: StepMergePreference, Filters: query.Filters{Page: 4, Tags: []string{"disk"}}, Persist: true},
		},
		{
			name:     "explicit tags win",
			raw:      "tags[0]=cpu&onlyProblems=false&page=1",
			pref:     prefs.Preference{Tags: []string{"disk"}},
			havePref: true,
			want:     Decision{Step: StepFetch, Filters: query.Filters{Page: 1, Tags: []string{"cpu"}}},
		},
		{
			name:     "preference with nothing to add",
			raw:      "onlyProblems=true&page=1",
			pref:     prefs.Preference{OnlyProblems: true},
			havePref: true,
			want:     Decision{Step: StepFetch, Filters: query.Filters{Page: 1, OnlyProblems: true}},
		},
		{
			name:     "ignored when absent",
			raw:      "onlyProblems=false&page=1",
			pref:     prefs.Preference{OnlyProblems: true},
			havePref: false,
			want:     Decision{Step: StepFetch, Filters: query.Filters{Page: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideLocation(tt.raw, tt.pref, tt.havePref)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("DecideLocation(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestDecideTags(t *testing.T) {
	known := []string{"cpu", "disk"}

	clean := query.Filters{Page: 3, Tags: []string{"disk", "cpu"}}
	if got := DecideTags(clean, known); got.Step != StepFetch || !got.Filters.Equal(clean) {
		t.Errorf("DecideTags(subset) = %+v, want fetch", got)
	}

	dirty := query.Filters{Page: 3, Tags: []string{"cpu", "ghost"}, OnlyProblems: true}
	got := DecideTags(dirty, known)
	want := Decision{Step: StepCorrectTags, Filters: query.Filters{Page: 3, Tags: []string{"cpu"}, OnlyProblems: true}, Persist: true}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("DecideTags(unknown) mismatch (-want +got):\n%s", diff)
	}
}

// A location that is canonical, has known tags and needs no merge must
// not redirect, whatever its filters are.
func TestNoRedirectForCleanLocation(t *testing.T) {
	known := []string{"a", "b", "c"}
	for _, f := range []query.Filters{
		{Page: 1},
		{Page: 9, Tags: []string{"c", "a"}},
		{Page: 2, Tags: []string{"b"}, OnlyProblems: true, SearchText: "x y"},
	} {
		raw := query.Encode(f)
		pref := prefs.FromFilters(f)
		d := DecideLocation(raw, pref, true)
		if d.Step.Redirects() {
			t.Errorf("DecideLocation(%q) = %s", raw, d.Step)
			continue
		}
		if d := DecideTags(d.Filters, known); d.Step.Redirects() {
			t.Errorf("DecideTags(%+v) = %s", f, d.Step)
		}
	}
}

func TestStepString(t *testing.T) {
	for step, want := range map[Step]string{
		StepFetch:           "fetch",
		StepCanonicalize:    "canonicalize",
		StepMergePreference: "merge-preference",
		StepCorrectTags:     "correct-tags",
		Step(99):            "unknown",
	} {
		if got := step.String(); got != want {
			t.Errorf("Step(%d).String() = %q, want %q", step, got, want)
		}
	}
}
