package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// Schema is the declared shape a parsed model response must satisfy before it
// is decoded into T. Fields of T without `omitempty` are required.
type Schema[T any] struct {
	Name        string
	Description string

	wrapper string
	aliases []string
	root    *jsonschema.Schema
}

type Option func(*options)

type options struct {
	name, description string
	wrapper           string
	aliases           []string
}

// WithName sets the name and description reported in errors and sent to
// providers that accept a response schema.
func WithName(name, description string) Option {
	return func(o *options) {
		o.name = name
		o.description = description
	}
}

// WithWrapper declares that T wraps its items under key. Responses that are a
// bare array, a single bare item, or that use one of the alias keys are
// rewritten into that shape before validation.
func WithWrapper(key string, aliases ...string) Option {
	return func(o *options) {
		o.wrapper = key
		o.aliases = aliases
	}
}

// NewSchema reflects the JSON schema of T.
func NewSchema[T any](opts ...Option) *Schema[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return &Schema[T]{
		Name:        o.name,
		Description: o.description,
		wrapper:     o.wrapper,
		aliases:     o.aliases,
		root:        r.Reflect(v),
	}
}

// JSONSchema returns the reflected schema, suitable for structured-output requests.
func (s *Schema[T]) JSONSchema() *jsonschema.Schema {
	return s.root
}

// Validate checks a parsed value against s and decodes it into T. Every missing
// required field and every required value that cannot be coerced to its declared
// type is reported in a single *ValidationError. Optional values that cannot be
// coerced are dropped, and absent optional arrays become empty.
// The input is not modified.
func Validate[T any](value any, s *Schema[T]) (T, error) {
	var zero T

	value = s.canonicalize(clone(value))

	v := validator{err: &ValidationError{Schema: s.Name}}
	value = v.walk("", value, s.root)
	if !v.err.empty() {
		return zero, v.err
	}

	bin, err := json.Marshal(value)
	if err != nil {
		v.err.Mismatched = append(v.err.Mismatched, err.Error())
		return zero, v.err
	}
	var out T
	if err := json.Unmarshal(bin, &out); err != nil {
		v.err.Mismatched = append(v.err.Mismatched, err.Error())
		return zero, v.err
	}
	return out, nil
}

func (s *Schema[T]) canonicalize(value any) any {
	if s.wrapper == "" {
		return value
	}

	switch x := value.(type) {
	case []any:
		return map[string]any{s.wrapper: x}
	case map[string]any:
		if _, ok := x[s.wrapper]; ok {
			return x
		}
		for _, alias := range s.aliases {
			if inner, ok := x[alias]; ok {
				delete(x, alias)
				x[s.wrapper] = inner
				return x
			}
		}
		if len(x) == 1 {
			for _, inner := range x {
				if arr, ok := inner.([]any); ok {
					return map[string]any{s.wrapper: arr}
				}
			}
		}
		return map[string]any{s.wrapper: []any{x}}
	default:
		return value
	}
}

type validator struct {
	err *ValidationError
}

func (v *validator) walk(path string, node any, s *jsonschema.Schema) any {
	if s == nil {
		return node
	}

	switch s.Type {
	case "object":
		obj, ok := node.(map[string]any)
		if !ok {
			v.mismatch(path, "object", node)
			return node
		}
		for _, name := range s.Required {
			if val, ok := obj[name]; !ok || val == nil {
				v.err.Missing = append(v.err.Missing, join(path, name))
			}
		}
		if s.Properties == nil {
			return obj
		}
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			required := slices.Contains(s.Required, pair.Key)
			p := join(path, pair.Key)

			val, ok := obj[pair.Key]
			if ok && val != nil {
				if required {
					obj[pair.Key] = v.walk(p, val, pair.Value)
					continue
				}
				// An optional value of the wrong kind is dropped and defaulted
				// like an absent one.
				sub := validator{err: &ValidationError{}}
				out := sub.walk(p, val, pair.Value)
				if !sub.rejected(p) {
					v.err.Missing = append(v.err.Missing, sub.err.Missing...)
					v.err.Mismatched = append(v.err.Mismatched, sub.err.Mismatched...)
					obj[pair.Key] = out
					continue
				}
				delete(obj, pair.Key)
			}
			if !required && pair.Value != nil && pair.Value.Type == "array" {
				obj[pair.Key] = []any{}
			}
		}
		return obj

	case "array":
		arr, ok := node.([]any)
		if !ok {
			v.mismatch(path, "array", node)
			return node
		}
		for i := range arr {
			arr[i] = v.walk(fmt.Sprintf("%s[%d]", path, i), arr[i], s.Items)
		}
		return arr

	case "string":
		switch x := node.(type) {
		case string:
			return x
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(x)
		}
		v.mismatch(path, "string", node)

	case "number", "integer":
		var f float64
		switch x := node.(type) {
		case float64:
			f = x
		case string:
			n, ok := parseNumber(x)
			if !ok {
				v.mismatch(path, s.Type, node)
				return node
			}
			f = n
		default:
			v.mismatch(path, s.Type, node)
			return node
		}
		if s.Type == "integer" {
			if f != math.Trunc(f) {
				v.mismatch(path, s.Type, node)
				return node
			}
		}
		return f

	case "boolean":
		switch x := node.(type) {
		case bool:
			return x
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b
			}
		}
		v.mismatch(path, "boolean", node)
	}
	return node
}

// rejected reports whether the value at path itself failed coercion, as opposed
// to something nested inside it.
func (v *validator) rejected(path string) bool {
	prefix := cmpPath(path) + " ("
	return slices.ContainsFunc(v.err.Mismatched, func(m string) bool { return strings.HasPrefix(m, prefix) })
}

func (v *validator) mismatch(path, want string, got any) {
	v.err.Mismatched = append(v.err.Mismatched, fmt.Sprintf("%s (want %s, got %s)", cmpPath(path), want, kindOf(got)))
}

// parseNumber accepts the money-ish strings models like to emit: "$1,500", " 250 ", "1200.50 USD".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "USD")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func cmpPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = clone(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = clone(val)
		}
		return out
	default:
		return v
	}
}
