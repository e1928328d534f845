package lookup

import "fmt"

// ParseError is returned when a lookup resource cannot be read or is not
// valid structured data.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse lookup resource %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MalformedResourceError is returned when a resource parses but does not have
// the expected shape (missing curve, bad [x, y] pair, empty curve).
type MalformedResourceError struct {
	Source string
	Curve  string
	Reason string
}

func (e *MalformedResourceError) Error() string {
	if e.Curve == "" {
		return fmt.Sprintf("malformed lookup resource %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("malformed lookup resource %s: curve %q: %s", e.Source, e.Curve, e.Reason)
}
