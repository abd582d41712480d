package acquisition

import (
	"fmt"
	"strings"
)

// AttemptFailure records one strategy's failure for a clip.
type AttemptFailure struct {
	Strategy string
	Err      error
}

// AcquisitionError aggregates the per-strategy failure trace after every
// strategy was exhausted for one clip. Recoverable at batch level.
type AcquisitionError struct {
	ClipID   string
	Attempts []AttemptFailure
}

func (e *AcquisitionError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("all strategies failed for clip %s: %s", e.ClipID, strings.Join(parts, "; "))
}

// NoClipsAcquiredError means zero of the requested clips could be acquired.
// Fatal for the job.
type NoClipsAcquiredError struct {
	Requested int
	Failures  []*AcquisitionError
}

func (e *NoClipsAcquiredError) Error() string {
	return fmt.Sprintf("none of %d requested clips could be acquired", e.Requested)
}
