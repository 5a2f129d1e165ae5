package ktree

import "fmt"

// OpenError wraps any failure while opening or parsing a container
// file.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("ktree: opening %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// BranchNotFoundError reports a branch path absent from the file
// directory.
type BranchNotFoundError struct {
	Path string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("ktree: no branch %q in file", e.Path)
}

// TypeMismatchError reports a typed read against a branch holding a
// different element type. It names both sides.
type TypeMismatchError struct {
	Branch    string
	Stored    DType
	Requested string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("ktree: branch %q holds %s, requested %s",
		e.Branch, e.Stored, e.Requested)
}

// IntegrityError reports stored data that violates a structural
// invariant of its format. Readers of derived formats reuse it.
type IntegrityError struct {
	Source string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: data integrity violated: %s", e.Source, e.Reason)
}

// ErrClosed is returned by reads against a closed file.
var ErrClosed = fmt.Errorf("ktree: file is closed")
