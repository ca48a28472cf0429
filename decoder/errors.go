package decoder

import (
	"errors"
	"fmt"
)

// Kind classifies why a document could not be decoded.
type Kind int

const (
	Malformed Kind = iota + 1
	InvalidPathIndex
	EmptyReachableSet
)

// Sentinels matched by errors.Is against any *DecodeError of the same kind.
var (
	ErrMalformed         = errors.New("malformed document")
	ErrInvalidPathIndex  = errors.New("invalid path index")
	ErrEmptyReachableSet = errors.New("empty reachable set")
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case InvalidPathIndex:
		return "invalid_path_index"
	case EmptyReachableSet:
		return "empty_reachable_set"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case Malformed:
		return ErrMalformed
	case InvalidPathIndex:
		return ErrInvalidPathIndex
	case EmptyReachableSet:
		return ErrEmptyReachableSet
	default:
		return nil
	}
}

// DecodeError aborts a whole load. Action is the offending action index, or -1
// when the failure is not tied to one action.
type DecodeError struct {
	Kind   Kind
	Action int
	Err    error
}

func (e *DecodeError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Action >= 0 {
		msg = fmt.Sprintf("%s (action %d)", msg, e.Action)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the kind of a decode failure, or 0 if err is not one.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func malformed(err error) error {
	return &DecodeError{Kind: Malformed, Action: -1, Err: err}
}
