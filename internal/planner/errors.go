package planner

import (
	"errors"
	"fmt"

	"github.com/nhle/planner/internal/auth"
	"github.com/nhle/planner/internal/store"
)

var (
	// ErrAuthRequired means no authenticated user was present. Not retried.
	ErrAuthRequired = auth.ErrAuthRequired

	// ErrNotFound means the referenced row does not exist for the caller.
	ErrNotFound = store.ErrNotFound

	// ErrPersistence wraps database failures on reads and writes.
	ErrPersistence = errors.New("persistence failure")

	// ErrAlreadySatisfied signals a completion that changed nothing
	// because the current cycle already holds one.
	ErrAlreadySatisfied = errors.New("already satisfied")

	// ErrInvalid covers malformed requests: unknown collections, ledger
	// indexes or sub-actions. Item fields themselves are not validated.
	ErrInvalid = errors.New("invalid request")
)

// Kind is the error taxonomy used at the action boundary.
type Kind int

const (
	KindNone Kind = iota
	KindAuthRequired
	KindNotFound
	KindPersistence
	KindAlreadySatisfied
	KindInvalid
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthRequired:
		return "auth_required"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindAlreadySatisfied:
		return "already_satisfied"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Classify maps err onto the taxonomy. Unrecognized errors are treated as
// persistence failures.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuthRequired):
		return KindAuthRequired
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadySatisfied):
		return KindAlreadySatisfied
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	default:
		return KindPersistence
	}
}

// Result is what crosses the action boundary: a success flag plus an
// optional user-facing message.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Kind    Kind   `json:"-"`
}

// ResultOf converts an action error into a Result.
func ResultOf(err error) Result {
	kind := Classify(err)
	r := Result{Success: kind == KindNone, Kind: kind}

	switch kind {
	case KindAuthRequired:
		r.Message = "Please sign in to continue"
	case KindNotFound:
		r.Message = "Item not found"
	case KindAlreadySatisfied:
		r.Message = "Already done for this cycle"
	case KindInvalid:
		r.Message = err.Error()
	case KindPersistence:
		r.Message = "Could not save changes"
	}
	return r
}

// wrap annotates err with the operation and tags unclassified errors as
// persistence failures.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classify(err) == KindPersistence && !errors.Is(err, ErrPersistence) {
		return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
