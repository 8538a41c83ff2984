package forest

import (
	"errors"
	"fmt"
)

// ErrInvariant is matched by every InvariantViolation.
var ErrInvariant = errors.New("invariant violation")

// InvariantViolation reports simulation state that correct code never
// produces. It aborts the batch.
type InvariantViolation struct {
	Trial  int
	Year   int
	Tree   int // -1 when not tied to one tree
	Detail string
}

func (e *InvariantViolation) Error() string {
	if e.Tree >= 0 {
		return fmt.Sprintf("%v: trial %d year %d tree %d: %s", ErrInvariant, e.Trial, e.Year, e.Tree, e.Detail)
	}
	return fmt.Sprintf("%v: trial %d year %d: %s", ErrInvariant, e.Trial, e.Year, e.Detail)
}

func (e *InvariantViolation) Is(target error) bool { return target == ErrInvariant }
