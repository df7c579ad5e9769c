package pipeline

import (
	"database/sql"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/cphtransit/disruptionscph/types"
)

// SegmentSessions finds maximal contiguous runs of identical (line, raw
// status) pairs in the classified timeline and stamps the rows of every
// disruptive run with a session ID, the session's start and end, and its
// duration. The timeline is gap-filled, so a run breaks as soon as the raw
// text changes, including changes to the Unknown sentinel; two identical
// statuses separated by anything else are two sessions. A run also breaks
// where a validity-window override resolves part of a raw-text run to normal
// service: only the disruptive rows form the session, and the overridden
// rows never carry session fields.
//
// Events may arrive in any order; each line is sorted by timestamp before
// segmenting.
//
// A session observed in a single sample still lasted at least one cadence
// interval, so durations are floor-clamped to the cadence. This biases
// reported durations downwards by up to one interval, which is the
// documented trade-off.
func SegmentSessions(events []*types.ClassifiedEvent, cadence time.Duration) {
	perLine := make(map[string][]*types.ClassifiedEvent)
	lineOrder := []string{}
	for _, event := range events {
		if _, seen := perLine[event.Line.ID]; !seen {
			lineOrder = append(lineOrder, event.Line.ID)
		}
		perLine[event.Line.ID] = append(perLine[event.Line.ID], event)
	}

	for _, lineID := range lineOrder {
		segmentLine(perLine[lineID], cadence)
	}
}

func segmentLine(events []*types.ClassifiedEvent, cadence time.Duration) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})

	runStart := 0
	for i := 1; i <= len(events); i++ {
		if i < len(events) && sameRun(events[i], events[runStart]) {
			continue
		}
		annotateRun(events[runStart:i], cadence)
		runStart = i
	}
}

// sameRun reports whether two rows of the same line belong to one contiguous
// session run. Matching raw text alone is not enough: a validity-window
// override can resolve rows of the run to normal service, and those must not
// be stamped or extend the session.
func sameRun(a, b *types.ClassifiedEvent) bool {
	return a.RawStatus == b.RawStatus && a.IsDisruption == b.IsDisruption
}

func annotateRun(run []*types.ClassifiedEvent, cadence time.Duration) {
	if len(run) == 0 || !run[0].IsDisruption {
		return
	}

	start := run[0].Time
	end := run[len(run)-1].Time
	// every sample stands for one cadence interval, so a run of n samples
	// lasted n intervals; duplicate timestamps can only shorten this, never
	// below one interval
	duration := end.Sub(start) + cadence
	if duration < cadence {
		duration = cadence
	}

	sessionID := types.GenerateSessionID()
	for _, event := range run {
		event.SessionID = sql.NullString{String: sessionID, Valid: true}
		event.SessionStart = pq.NullTime{Time: start, Valid: true}
		event.SessionEnd = pq.NullTime{Time: end, Valid: true}
		event.SessionDuration = sql.NullInt64{Int64: int64(duration.Minutes()), Valid: true}
	}
}
