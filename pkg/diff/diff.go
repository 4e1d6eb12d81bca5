// Package diff compares two generations of the same content so a regeneration
// can show what changed.
package diff

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/aryann/difflib"

	"storyroom/pkg/schema"
	"storyroom/pkg/utils"
)

type ChangeType int

const (
	Unchanged ChangeType = iota
	Added
	Removed
	Modified
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unchanged"
	}
}

func (c ChangeType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ChangeType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unchanged":
		*c = Unchanged
	case "added":
		*c = Added
	case "removed":
		*c = Removed
	case "modified":
		*c = Modified
	default:
		return fmt.Errorf("diff: unknown change type %q", b)
	}
	return nil
}

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

type WordDelta struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

type StringDiff struct {
	Old    string      `json:"old"`
	New    string      `json:"new"`
	Deltas []WordDelta `json:"deltas"`
}

type FieldDiff struct {
	Path string     `json:"path"`
	Str  StringDiff `json:"diff"`
}

type SuggestionDiff struct {
	VenueName  string      `json:"venueName"`
	State      ChangeType  `json:"state"`
	FieldDiffs []FieldDiff `json:"fields,omitempty"`
	ListAdd    []string    `json:"listAdded,omitempty"`
	ListDel    []string    `json:"listRemoved,omitempty"`
}

// Suggestions pairs venues by case-insensitive name and reports what changed
// between two suggestion sets, sorted by venue name.
func Suggestions(oldS, newS []schema.LocationSuggestion) []SuggestionDiff {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

	omap := map[string]schema.LocationSuggestion{}
	nmap := map[string]schema.LocationSuggestion{}
	keys := map[string]struct{}{}
	for _, s := range oldS {
		k := norm(s.VenueName)
		omap[k] = s
		keys[k] = struct{}{}
	}
	for _, s := range newS {
		k := norm(s.VenueName)
		nmap[k] = s
		keys[k] = struct{}{}
	}

	out := make([]SuggestionDiff, 0, len(keys))
	for k := range keys {
		o, okO := omap[k]
		n, okN := nmap[k]
		switch {
		case okO && !okN:
			out = append(out, SuggestionDiff{VenueName: o.VenueName, State: Removed})
		case !okO && okN:
			out = append(out, SuggestionDiff{
				VenueName: n.VenueName,
				State:     Added,
				FieldDiffs: []FieldDiff{
					{Path: "venueType", Str: strEq("", n.VenueType)},
					{Path: "description", Str: strEq("", n.Description)},
					{Path: "estimatedCost", Str: strEq("", costString(n))},
				},
			})
		default:
			fd := make([]FieldDiff, 0, 5)
			addFieldDiff := func(path, a, b string) {
				if a == b {
					return
				}
				fd = append(fd, FieldDiff{Path: path, Str: strDiff(a, b)})
			}
			addFieldDiff("venueType", o.VenueType, n.VenueType)
			addFieldDiff("description", o.Description, n.Description)
			addFieldDiff("address", o.Address, n.Address)
			addFieldDiff("estimatedCost", costString(o), costString(n))

			oldList := append(slices.Clone(o.Permits), o.Amenities...)
			newList := append(slices.Clone(n.Permits), n.Amenities...)
			adds, dels, edits := diffStringListSmart(oldList, newList)
			for _, e := range edits {
				fd = append(fd, FieldDiff{Path: "permits/amenities", Str: e})
			}

			state := Unchanged
			if len(fd) > 0 || len(adds) > 0 || len(dels) > 0 {
				state = Modified
			}
			out = append(out, SuggestionDiff{
				VenueName:  n.VenueName,
				State:      state,
				FieldDiffs: fd,
				ListAdd:    adds,
				ListDel:    dels,
			})
		}
	}
	slices.SortFunc(out, func(a, b SuggestionDiff) int { return cmp.Compare(a.VenueName, b.VenueName) })
	return out
}

// Changed drops unchanged entries.
func Changed(in []SuggestionDiff) []SuggestionDiff {
	return slices.DeleteFunc(slices.Clone(in), func(d SuggestionDiff) bool { return d.State == Unchanged })
}

func costString(s schema.LocationSuggestion) string {
	if s.EstimatedCost == nil {
		return ""
	}
	return fmt.Sprintf("$%.0f", *s.EstimatedCost)
}

func strEq(a, b string) StringDiff {
	return StringDiff{Old: a, New: b, Deltas: []WordDelta{{Op: Insert, Text: b}}}
}

func strDiff(a, b string) StringDiff {
	if a == b {
		return StringDiff{Old: a, New: b, Deltas: []WordDelta{{Op: Equal, Text: a}}}
	}
	recs := difflib.Diff(tokenizeWords(a), tokenizeWords(b))
	deltas := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			deltas = append(deltas, WordDelta{Op: Equal, Text: r.Payload})
		case difflib.LeftOnly:
			deltas = append(deltas, WordDelta{Op: Delete, Text: r.Payload})
		case difflib.RightOnly:
			deltas = append(deltas, WordDelta{Op: Insert, Text: r.Payload})
		}
	}
	return StringDiff{Old: a, New: b, Deltas: coalesceSpaces(deltas)}
}

// tokenizeWords splits s into runs of spaces, words and punctuation, keeping all of them.
func tokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
	}
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if kind == -1 {
			kind = k
		}
		if k != kind {
			flush()
			kind = k
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// coalesceSpaces merges runs of the same op, folding whitespace-only equal runs into the current op.
func coalesceSpaces(in []WordDelta) []WordDelta {
	out := make([]WordDelta, 0, len(in))
	flush := func(op Op, buf *strings.Builder) {
		if buf.Len() == 0 {
			return
		}
		out = append(out, WordDelta{Op: op, Text: buf.String()})
		buf.Reset()
	}
	var curOp Op = -1
	var buf strings.Builder
	for _, d := range in {
		if strings.TrimSpace(d.Text) == "" && d.Op == Equal {
			buf.WriteString(d.Text)
			continue
		}
		if curOp != d.Op && curOp != -1 {
			flush(curOp, &buf)
		}
		if curOp != d.Op {
			curOp = d.Op
		}
		buf.WriteString(d.Text)
	}
	flush(curOp, &buf)
	return out
}

func diffStringListSmart(a, b []string) (adds, dels []string, edits []StringDiff) {
	usedB := make([]bool, len(b))
	for _, as := range a {
		bestJ, best := -1, 0.0
		for j, bs := range b {
			if usedB[j] {
				continue
			}
			s := utils.Similarity(as, bs)
			if s > best {
				bestJ, best = j, s
			}
		}
		if bestJ >= 0 && best >= 0.70 {
			if as != b[bestJ] {
				edits = append(edits, strDiff(as, b[bestJ]))
			}
			usedB[bestJ] = true
		} else {
			dels = append(dels, as)
		}
	}
	for j, bs := range b {
		if !usedB[j] {
			adds = append(adds, bs)
		}
	}
	return
}
