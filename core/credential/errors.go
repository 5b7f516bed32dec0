package credential

import (
	"errors"
	"fmt"
)

var (
	// ErrStore matches every *StoreError.
	ErrStore = errors.New("credential store failure")
	// ErrMalformed indicates persisted data that does not decode into a Set.
	ErrMalformed = errors.New("malformed credential data")
	// ErrNoDirectory is returned by NewFileStore for an empty directory path.
	ErrNoDirectory = errors.New("credential directory is required")
)

// StoreError reports a failed read or write of a principal's credentials.
// It unwraps to the underlying store error.
type StoreError struct {
	Op        string
	Principal string
	Err       error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("credential store %s for %q: %v", e.Op, e.Principal, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func storeError(op, principal string, err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Principal: principal, Err: err}
}
