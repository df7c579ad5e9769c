package pipeline

import "errors"

// ErrNoData is returned when the raw status log is empty: an empty log must
// abort the run instead of producing a vacuously complete timeline
var ErrNoData = errors.New("no raw status data to process")

// ErrMissingReference is returned when a reference table lacks rows the
// pipeline cannot run without (lines, status mappings, hour buckets or rush
// windows)
var ErrMissingReference = errors.New("required reference data missing")

// ErrConsistency is returned when the derived tables fail the invariant
// checks that gate the output swap
var ErrConsistency = errors.New("derived tables failed consistency checks")
