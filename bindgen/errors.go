package bindgen

import (
	"fmt"
)

// MissingFieldError is returned by Load when a specification file parses but
// lacks a field that the data model requires.
//
// Path is a dotted path to the absent field, such as "bindings[2].ret".
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Path)
}
