package network

import "fmt"

// BuildErrorKind classifies why Build refused to produce a Network.
type BuildErrorKind string

const (
	ErrDuplicateStop    BuildErrorKind = "duplicate_stop"
	ErrUnknownStop      BuildErrorKind = "unknown_stop"
	ErrNonMonotoneTimes BuildErrorKind = "non_monotone_stop_times"
	ErrNoActiveTrips    BuildErrorKind = "no_active_trips"
)

// BuildError is the structured, fatal report produced when Build cannot
// construct a Network (spec.md §7, "Build-time fatal").
type BuildError struct {
	Kind    BuildErrorKind
	Details []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("network build failed (%s): %d offending record(s), first: %s",
		e.Kind, len(e.Details), firstOrEmpty(e.Details))
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
