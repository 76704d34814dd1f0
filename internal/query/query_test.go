package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Filters
	}{
		{"empty", "", Filters{Page: 1}},
		{"leading question mark", "?page=3", Filters{Page: 3}},
		{"non numeric page", "page=abc", Filters{Page: 1}},
		{"empty page", "page=", Filters{Page: 1}},
		{"negative page", "page=-4", Filters{Page: 4}},
		{"fractional page", "page=2.7", Filters{Page: 2}},
		{"zero page", "page=0", Filters{Page: 1}},
		{"infinite page", "page=Inf", Filters{Page: 1}},
		{"indexed tags", "tags[0]=cpu&tags[1]=disk", Filters{Page: 1, Tags: []string{"cpu", "disk"}}},
		{"indexed tags out of order", "tags[1]=disk&tags[0]=cpu", Filters{Page: 1, Tags: []string{"cpu", "disk"}}},
		{"index above nine", "tags[10]=k&tags[2]=c", Filters{Page: 1, Tags: []string{"c", "k"}}},
		{"escaped brackets", "tags%5B0%5D=cpu", Filters{Page: 1, Tags: []string{"cpu"}}},
		{"single plain tag", "tags=cpu", Filters{Page: 1, Tags: []string{"cpu"}}},
		{"empty bracket tags", "tags[]=cpu&tags[]=disk", Filters{Page: 1, Tags: []string{"cpu", "disk"}}},
		{"plain tags after indexed", "tags=mem&tags[0]=cpu&tags[1]=disk", Filters{Page: 1, Tags: []string{"cpu", "disk", "mem"}}},
		{"sparse indexes", "tags[0]=cpu&tags[7]=disk", Filters{Page: 1, Tags: []string{"cpu", "disk"}}},
		{"empty tag dropped", "tags[0]=&tags[1]=cpu", Filters{Page: 1, Tags: []string{"cpu"}}},
		{"unbalanced brackets ignored", "tags[0=cpu&page]=2&tags[1]=disk", Filters{Page: 1, Tags: []string{"disk"}}},
		{"non numeric index ignored", "tags[x]=a&tags[0]=b", Filters{Page: 1, Tags: []string{"b"}}},
		{"index past limit ignored", "tags[0]=cpu&tags[5000]=disk", Filters{Page: 1, Tags: []string{"cpu"}}},
		{"tag with separator", "tags[0]=a%2Cb", Filters{Page: 1, Tags: []string{"a,b"}}},
		{"only problems false", "onlyProblems=false", Filters{Page: 1}},
		{"only problems true", "onlyProblems=true", Filters{Page: 1, OnlyProblems: true}},
		{"only problems truthy", "onlyProblems=1", Filters{Page: 1, OnlyProblems: true}},
		{"only problems empty", "onlyProblems=", Filters{Page: 1}},
		{"search text collapsed", "searchText=+high+++load++", Filters{Page: 1, SearchText: "high load"}},
		{"search text tabs", "searchText=a%09%0Ab", Filters{Page: 1, SearchText: "a b"}},
		{
			"everything",
			"tags[0]=cpu&tags[1]=disk&onlyProblems=true&page=2&searchText=high+load",
			Filters{Page: 2, Tags: []string{"cpu", "disk"}, OnlyProblems: true, SearchText: "high load"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Decode(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	f := Filters{Page: 2, Tags: []string{"cpu", "disk"}, OnlyProblems: true, SearchText: "high load"}
	want := "tags[0]=cpu&tags[1]=disk&onlyProblems=true&page=2&searchText=high+load"
	if got := Encode(f); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	if got := Encode(Filters{}); got != "onlyProblems=false&page=1" {
		t.Errorf("Encode(zero) = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Filters{
		Default(),
		{Page: 7},
		{Page: 1, OnlyProblems: true},
		{Page: 1, Tags: []string{"cpu"}},
		{Page: 3, Tags: []string{"a&b", "c=d", "e f", "[x]", "ü"}},
		{Page: 1, SearchText: "disk 100%"},
		{Page: 12, Tags: []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10"}, OnlyProblems: true, SearchText: "x y"},
	}
	for _, f := range cases {
		raw := Encode(f)
		if got := Decode(raw); !got.Equal(f) {
			t.Errorf("Decode(Encode(%+v)) = %+v via %q", f, got, raw)
		}
	}
}

func TestCanonical(t *testing.T) {
	canonical := "tags[0]=cpu&onlyProblems=false&page=1"
	if _, ok := Canonical(canonical); !ok {
		t.Errorf("Canonical(%q) reported non-canonical", canonical)
	}
	if _, ok := Canonical("?" + canonical); !ok {
		t.Errorf("leading ? should not matter")
	}

	got, ok := Canonical("tags[0]=cpu&page=abc")
	if ok {
		t.Fatal("malformed page reported canonical")
	}
	if got != canonical {
		t.Errorf("Canonical() = %q, want %q", got, canonical)
	}

	again, ok := Canonical(got)
	if !ok || again != got {
		t.Errorf("canonical form is not stable: %q -> %q", got, again)
	}
}

func TestWithTagsCopies(t *testing.T) {
	src := []string{"a", "b"}
	f := Default().WithTags(src)
	src[0] = "changed"
	if f.Tags[0] != "a" {
		t.Errorf("WithTags aliased the caller's slice")
	}
	if Default().WithTags(nil).Tags != nil {
		t.Errorf("WithTags(nil) should leave tags nil")
	}
}
