package schema

import (
	"fmt"
	"strings"
)

// SchemaError reports required headers absent from a source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing headers: %s", strings.Join(e.Missing, ", "))
}

// DecodeError reports a source that could not be parsed as CSV.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("parsing error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
