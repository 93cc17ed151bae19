package engine

import "errors"

// Validation error kinds. These are rejected before any state change and
// surfaced directly to the caller; none of them are ever escalated above
// info-level logging.
var (
	ErrInvalidSymbol   = errors.New("engine: invalid symbol")
	ErrInvalidPrice    = errors.New("engine: invalid price")
	ErrInvalidQuantity = errors.New("engine: invalid quantity")
	ErrInvalidSide     = errors.New("engine: invalid side")
	ErrInvalidType     = errors.New("engine: invalid type")
)

// invariantViolation is raised (via panic, never returned) when a
// post-condition that should be impossible under correct matching is
// detected — a crossed book, a negative aggregate, a duplicate order id.
// These are programming errors: the book is considered corrupted and the
// process should abort with a diagnostic naming the offending order,
// rather than limp along with undefined state.
type invariantViolation struct {
	msg string
}

func (e *invariantViolation) Error() string { return "engine: invariant violation: " + e.msg }

func panicInvariant(msg string) {
	panic(&invariantViolation{msg: msg})
}
