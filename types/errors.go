package types

import "fmt"

// InputError reports a problem with the supplied images: too few of them,
// or a file that cannot be read or decoded.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("input error: %v", e.Err)
	}
	return fmt.Sprintf("input error: %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ComputationError reports an image pair that cannot be compared
type ComputationError struct {
	PathA string
	PathB string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cannot compare %s and %s: %v", e.PathA, e.PathB, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// OutputError reports a failure while persisting results
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output error: %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
