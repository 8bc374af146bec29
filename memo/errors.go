package memo

import (
	"errors"
	"fmt"
)

// ErrKeyDerivation is wrapped by every KeyDerivationError.
var ErrKeyDerivation = errors.New("cannot derive cache key")

// KeyDerivationError reports which argument could not be canonicalized.
// No cache entry is created or consulted when it is returned.
type KeyDerivationError struct {
	Index int    // position in the argument list
	Type  string // Go type of the offending argument
	Err   error
}

func (e *KeyDerivationError) Error() string {
	return fmt.Sprintf("%v: argument %d (%s): %v", ErrKeyDerivation, e.Index, e.Type, e.Err)
}

func (e *KeyDerivationError) Unwrap() []error {
	return []error{ErrKeyDerivation, e.Err}
}

// PanicError carries a panic recovered from an asynchronous operation.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("memoized operation panicked: %v", e.Value)
}
