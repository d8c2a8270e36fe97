// Package errors defines the failure kinds reported by the inventory core.
//
// Every error produced on purpose by validation or business rules is an *Error of one of three
// kinds: ErrValidation, ErrNotFound or ErrDuplicate. Callers branch with errors.Is against the
// kind and read the user-facing text with Message. Any other error is internal.
package errors

import "errors"

var (
	// ErrValidation marks malformed input or a violated business rule.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a reference to a product that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks a barcode collision.
	ErrDuplicate = errors.New("duplicate")
)

var (
	ErrProductNotFound  = NotFound("Product not found")
	ErrDuplicateBarcode = Duplicate("Product with this barcode already exists")
)

// Error is a domain failure carrying a human-readable message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

// Is reports whether target is the kind of e, or e itself.
func (e *Error) Is(target error) bool {
	return target == e.kind || target == e
}

// Kind returns one of ErrValidation, ErrNotFound, ErrDuplicate.
func (e *Error) Kind() error {
	return e.kind
}

// Validation creates an ErrValidation-kind error.
func Validation(msg string) *Error {
	return &Error{kind: ErrValidation, msg: msg}
}

// NotFound creates an ErrNotFound-kind error.
func NotFound(msg string) *Error {
	return &Error{kind: ErrNotFound, msg: msg}
}

// Duplicate creates an ErrDuplicate-kind error.
func Duplicate(msg string) *Error {
	return &Error{kind: ErrDuplicate, msg: msg}
}

// Message returns the user-facing message of the first *Error in err's chain.
// ok is false when err carries no domain error.
func Message(err error) (msg string, ok bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.msg, true
	}
	return "", false
}
