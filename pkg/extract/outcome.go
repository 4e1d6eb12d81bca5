package extract

// Kind classifies the outcome of an extraction.
type Kind int

const (
	Ok Kind = iota
	ParseFailed
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case ParseFailed:
		return "parse_failed"
	case ValidationFailed:
		return "validation_failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of running raw model output through
// Sanitize, Parse and Validate. Value is only meaningful when Kind is Ok.
type Outcome[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// Failure returns the error, or nil when the extraction succeeded.
func (o Outcome[T]) Failure() error {
	if o.Kind == Ok {
		return nil
	}
	return o.Err
}

// Extract runs the whole recovery pipeline over a raw model response.
func Extract[T any](raw string, s *Schema[T]) Outcome[T] {
	parsed, err := Parse(Sanitize(raw))
	if err != nil {
		return Outcome[T]{Kind: ParseFailed, Err: err}
	}
	v, err := Validate(parsed, s)
	if err != nil {
		return Outcome[T]{Kind: ValidationFailed, Err: err}
	}
	return Outcome[T]{Kind: Ok, Value: v}
}
