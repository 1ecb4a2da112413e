package knowledge

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrNotFound: a write or delete referenced an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation: the input broke an invariant; nothing was written.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable: the database could not serve the request.
	ErrUnavailable = errors.New("store unavailable")
)

// Kind strings as reported to bridge callers.
const (
	KindNotFound    = "not_found"
	KindValidation  = "validation"
	KindUnavailable = "store_unavailable"
)

// Error is the tagged failure returned by every Store operation.
type Error struct {
	Op   string // operation, e.g. "create entity"
	Kind error  // one of ErrNotFound, ErrValidation, ErrUnavailable
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// KindOf returns the bridge-facing kind of err, or "" for untagged errors.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	}
	return ""
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func notFound(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrNotFound, Err: fmt.Errorf(format, args...)}
}

func invalid(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

func invalidErr(op string, err error) error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{Op: op, Kind: ErrValidation, Err: err}
}

// unavailable tags a database failure. Already-tagged errors pass through
// so a validation failure raised inside a transaction keeps its kind.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{Op: op, Kind: ErrUnavailable, Err: err}
}
