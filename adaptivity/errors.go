package adaptivity

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates forms whose slots, ranks or spaces do not fit together.
	ErrConfiguration = errors.New("adaptivity: invalid configuration")
	// ErrLinearAlgebra indicates a local system that could not be solved.
	ErrLinearAlgebra = errors.New("adaptivity: singular local system")
	// ErrNotImplemented indicates a facet residual for a space of value rank 2 or higher.
	ErrNotImplemented = errors.New("adaptivity: not implemented")
	// ErrStaleDual indicates indicators requested without a current extrapolated dual.
	ErrStaleDual = errors.New("adaptivity: extrapolated dual is missing or stale")
)

// LinearAlgebraError reports the cell whose local system failed
type LinearAlgebraError struct {
	Cell int
	Err  error
}

func (e *LinearAlgebraError) Error() string {
	return fmt.Sprintf("%v on cell %d: %v", ErrLinearAlgebra, e.Cell, e.Err)
}

func (e *LinearAlgebraError) Is(target error) bool { return target == ErrLinearAlgebra }

func (e *LinearAlgebraError) Unwrap() error { return e.Err }

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
