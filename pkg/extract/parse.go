package extract

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

type strategy struct {
	name string
	run  func(string) (any, error)
}

// strategies run in this order; the first container value wins.
var strategies = []strategy{
	{"direct", decodeContainer},
	{"array", func(s string) (any, error) { return decodeSlice(s, '[', ']') }},
	{"object", func(s string) (any, error) { return decodeSlice(s, '{', '}') }},
	{"repair", repairContainer},
}

var (
	errNoSlice     = errors.New("no enclosing brackets")
	errNotAnObject = errors.New("decoded value is not an object or array")
)

// Parse extracts a JSON object or array from sanitized model output. Strategies
// are tried in a fixed order: the whole text, the first '[' to the last ']',
// the first '{' to the last '}', and finally a repair pass over everything from
// the first bracket. A *ParseError is returned only when every strategy fails.
//
// The order is a heuristic: a response that carries an array-shaped example
// before the real object can be mis-extracted by the array strategy.
func Parse(sanitized string) (any, error) {
	failures := make([]StrategyError, 0, len(strategies))
	for _, st := range strategies {
		v, err := st.run(sanitized)
		if err == nil {
			return v, nil
		}
		failures = append(failures, StrategyError{Strategy: st.name, Err: err})
	}
	return nil, newParseError(sanitized, failures)
}

func decodeContainer(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	default:
		return nil, errNotAnObject
	}
}

func decodeSlice(s string, open, closing byte) (any, error) {
	i := strings.IndexByte(s, open)
	j := strings.LastIndexByte(s, closing)
	if i == -1 || j <= i {
		return nil, errNoSlice
	}
	return decodeContainer(s[i : j+1])
}

func repairContainer(s string) (any, error) {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return nil, errNoSlice
	}
	repaired, err := jsonrepair.JSONRepair(s[start:])
	if err != nil {
		return nil, err
	}
	return decodeContainer(repaired)
}
