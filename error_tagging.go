package asyncutil

import (
	"errors"
	"fmt"
)

// ItemError exposes correlation metadata for a per-item failure surfaced
// by ForEach: which delivery index the wrapped error came from.
// There is no independent item identity to carry beyond that, since values
// are drained from an AsyncQueue via NextStage rather than submitted as
// individually-identified work items; delivery order is all the caller
// needs to correlate a failure back to its source.
type ItemError interface {
	error
	Unwrap() error
	Index() int
}

type itemTaggedError struct {
	err   error
	index int
}

func newItemTaggedError(err error, index int) error {
	if err == nil {
		return nil
	}
	return &itemTaggedError{err: err, index: index}
}

func (e *itemTaggedError) Error() string { return e.err.Error() }
func (e *itemTaggedError) Unwrap() error { return e.err }
func (e *itemTaggedError) Index() int    { return e.index }

func (e *itemTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "item(index=%d): %+v", e.index, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractItemIndex returns the delivery index recorded on err, if err (or
// something it wraps) is an ItemError.
func ExtractItemIndex(err error) (int, bool) {
	var ie ItemError
	if errors.As(err, &ie) {
		return ie.Index(), true
	}
	return 0, false
}
