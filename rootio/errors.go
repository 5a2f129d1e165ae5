package rootio

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError reports an explicitly requested field that does not exist,
// naming the valid alternatives.
type FieldError struct {
	Field        string
	Alternatives []string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("no field named %q, available fields: %s",
		e.Field, strings.Join(e.Alternatives, ", "))
}

// ErrUnsupportedIteration marks iteration requests the chain model does
// not cover. Callers can detect it and fall back to explicit indexing;
// materialized field access keeps working for any chain.
var ErrUnsupportedIteration = errors.New(
	"rootio: iteration is only supported with an empty index chain or a single step-1 slice")
