package filter

import "errors"

var (
	// ErrDimensionMismatch is returned when matrix or vector dimensions are inconsistent
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrSingularInnovationCov is returned when innovation covariance can not be inverted
	ErrSingularInnovationCov = errors.New("singular innovation covariance")
)
