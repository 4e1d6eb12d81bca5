package diff

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"storyroom/pkg/schema"
)

func cost(v float64) *float64 { return &v }

func TestSuggestions(t *testing.T) {
	old := []schema.LocationSuggestion{
		{VenueName: "Loft A", VenueType: "loft", Description: "Bright open loft with brick walls", EstimatedCost: cost(1000)},
		{VenueName: "Jade Bar", VenueType: "bar", EstimatedCost: cost(1200), Amenities: []string{"parking"}},
		{VenueName: "Elm Park", VenueType: "park"},
	}
	updated := []schema.LocationSuggestion{
		{VenueName: "loft a", VenueType: "loft", Description: "Bright open loft with concrete walls", EstimatedCost: cost(1500)},
		{VenueName: "Jade Bar", VenueType: "bar", EstimatedCost: cost(1200), Amenities: []string{"parking", "green room"}},
		{VenueName: "Harbor Warehouse", VenueType: "warehouse"},
	}

	got := Suggestions(old, updated)
	states := map[string]ChangeType{}
	for _, d := range got {
		states[strings.ToLower(d.VenueName)] = d.State
	}

	want := map[string]ChangeType{
		"loft a":           Modified,
		"jade bar":         Modified,
		"elm park":         Removed,
		"harbor warehouse": Added,
	}
	for k, v := range want {
		if states[k] != v {
			t.Errorf("%s state = %v, want %v", k, states[k], v)
		}
	}

	if !slices.IsSortedFunc(got, func(a, b SuggestionDiff) int { return strings.Compare(a.VenueName, b.VenueName) }) {
		t.Error("diffs not sorted by venue name")
	}

	for _, d := range got {
		switch strings.ToLower(d.VenueName) {
		case "loft a":
			paths := make([]string, 0, len(d.FieldDiffs))
			for _, f := range d.FieldDiffs {
				paths = append(paths, f.Path)
			}
			if !slices.Equal(paths, []string{"description", "estimatedCost"}) {
				t.Errorf("loft paths = %v", paths)
			}
			desc := d.FieldDiffs[0].Str
			if !hasDelta(desc.Deltas, Delete, "brick") || !hasDelta(desc.Deltas, Insert, "concrete") {
				t.Errorf("description deltas = %+v", desc.Deltas)
			}
		case "jade bar":
			if !slices.Equal(d.ListAdd, []string{"green room"}) || len(d.ListDel) != 0 {
				t.Errorf("list changes = +%v -%v", d.ListAdd, d.ListDel)
			}
		}
	}
}

func hasDelta(ds []WordDelta, op Op, text string) bool {
	for _, d := range ds {
		if d.Op == op && strings.Contains(d.Text, text) {
			return true
		}
	}
	return false
}

func TestChanged(t *testing.T) {
	same := []schema.LocationSuggestion{{VenueName: "Loft A", EstimatedCost: cost(1000)}}
	if got := Changed(Suggestions(same, same)); len(got) != 0 {
		t.Errorf("Changed() = %+v, want none", got)
	}
}

func TestTokenizeWords(t *testing.T) {
	got := tokenizeWords("It's a loft, really.")
	want := []string{"It's", " ", "a", " ", "loft", ",", " ", "really", "."}
	if !slices.Equal(got, want) {
		t.Errorf("tokenizeWords() = %q, want %q", got, want)
	}
	if strings.Join(got, "") != "It's a loft, really." {
		t.Error("tokens do not reassemble the input")
	}
}

func TestChangeTypeText(t *testing.T) {
	b, _ := Modified.MarshalText()
	if string(b) != "modified" {
		t.Errorf("MarshalText() = %s", b)
	}

	for _, c := range []ChangeType{Unchanged, Added, Removed, Modified} {
		b, _ := c.MarshalText()
		var got ChangeType
		if err := got.UnmarshalText(b); err != nil || got != c {
			t.Errorf("UnmarshalText(%s) = %v, %v, want %v", b, got, err, c)
		}
	}

	var bad ChangeType
	if err := bad.UnmarshalText([]byte("renamed")); err == nil {
		t.Error("UnmarshalText(renamed) error = nil")
	}
}

func TestSuggestionDiffJSON(t *testing.T) {
	in := []SuggestionDiff{{
		VenueName:  "Loft A",
		State:      Modified,
		FieldDiffs: []FieldDiff{{Path: "description", Str: strDiff("old text", "new text")}},
		ListAdd:    []string{"parking"},
	}}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out []SuggestionDiff
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(out) != 1 || out[0].State != Modified || out[0].VenueName != "Loft A" {
		t.Errorf("round trip = %+v", out)
	}
	if len(out[0].FieldDiffs) != 1 || out[0].FieldDiffs[0].Str.New != "new text" {
		t.Errorf("FieldDiffs = %+v", out[0].FieldDiffs)
	}
}
