package compose

import "fmt"

// CompositionError is a transcoding failure at a mandatory stage
// (concatenate or reframe). Fatal: it aborts the job.
type CompositionError struct {
	Stage  string
	Stderr string
	Err    error
}

func (e *CompositionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s stage failed: %v: %s", e.Stage, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// OutroUnavailableError is non-fatal: the pipeline proceeds with the
// pre-outro output.
type OutroUnavailableError struct {
	Err error
}

func (e *OutroUnavailableError) Error() string {
	return fmt.Sprintf("outro unavailable: %v", e.Err)
}

func (e *OutroUnavailableError) Unwrap() error { return e.Err }

// ThumbnailError is non-fatal: the job completes with the thumbnail omitted.
type ThumbnailError struct {
	Err error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("thumbnail extraction failed: %v", e.Err)
}

func (e *ThumbnailError) Unwrap() error { return e.Err }
