// Package pipeline turns the append-only raw status log into the derived
// analytical tables behind the dashboard: the gap-filled, semantically
// classified timeline and the per-station impact table. Every run is a full
// recomputation from an immutable reference snapshot; the outputs are swapped
// whole, never patched.
package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/SaidinWoT/timespan"
	"github.com/gbl08ma/sqalx"

	"github.com/cphtransit/disruptionscph/types"
)

var rootSqalxNode sqalx.Node
var mainLog *log.Logger

// Initialize initializes the package
func Initialize(snode sqalx.Node, log *log.Logger) {
	rootSqalxNode = snode
	mainLog = log
}

// Result carries everything one pipeline run produced
type Result struct {
	Events   []*types.ClassifiedEvent
	Impacts  []*types.StationImpact
	Unmapped *UnmappedReport
	Summary  []*DaySummary
}

// Compute derives the full result from the raw log and the reference
// snapshot without touching storage. It is a pure function of its inputs,
// which is what the tests pin down.
func Compute(raw []*types.RawStatus, snapshot *Snapshot, cadence time.Duration, summaryWindow int) (*Result, error) {
	samples, err := CompleteTimeline(raw, snapshot.Lines, cadence)
	if err != nil {
		return nil, err
	}

	events, unmapped := Classify(samples, snapshot)
	SegmentSessions(events, cadence)
	impacts := ExpandStationImpact(events, snapshot)
	MergeDowntime(events, snapshot)

	result := &Result{
		Events:   events,
		Impacts:  impacts,
		Unmapped: unmapped,
		Summary:  Summarize(events, summaryWindow),
	}
	if err := checkConsistency(result, snapshot, cadence); err != nil {
		return nil, err
	}
	return result, nil
}

// Run recomputes both output tables from the raw log inside a single
// transaction and swaps them in. Readers of the output tables see either the
// previous complete pair or the new complete pair, never a mix. Fatal
// conditions (empty raw log, missing reference rows, failed consistency
// checks) leave the previous outputs untouched.
func Run(snapshot *Snapshot, cadence time.Duration, summaryWindow int) (*Result, error) {
	tx, err := rootSqalxNode.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	raw, err := types.GetRawStatuses(tx)
	if err != nil {
		return nil, fmt.Errorf("Run: %s", err)
	}

	result, err := Compute(raw, snapshot, cadence, summaryWindow)
	if err != nil {
		return nil, err
	}
	if mainLog != nil && result.Unmapped.HasUnmapped() {
		mainLog.Println("Data quality:", result.Unmapped.String())
	}

	err = types.ReplaceClassifiedEvents(tx, result.Events)
	if err != nil {
		return nil, fmt.Errorf("Run: %s", err)
	}
	err = types.ReplaceStationImpacts(tx, result.Impacts)
	if err != nil {
		return nil, fmt.Errorf("Run: %s", err)
	}
	return result, tx.Commit()
}

// checkConsistency re-verifies the invariants the downstream tables rely on
// before anything is swapped in
func checkConsistency(result *Result, snapshot *Snapshot, cadence time.Duration) error {
	type slotKey struct {
		line string
		unix int64
	}

	seen := make(map[slotKey]bool)
	for _, event := range result.Events {
		key := slotKey{line: event.Line.ID, unix: event.Time.Unix()}
		if seen[key] {
			return fmt.Errorf("duplicate timeline row for line %s at %s: %w",
				event.Line.ID, event.Time, ErrConsistency)
		}
		seen[key] = true

		if event.SessionDuration.Valid && event.SessionDuration.Int64 < int64(cadence.Minutes()) {
			return fmt.Errorf("session duration below cadence for line %s at %s: %w",
				event.Line.ID, event.Time, ErrConsistency)
		}
	}

	impactedCount := make(map[slotKey]int64)
	for _, impact := range result.Impacts {
		if !stationOnLine(snapshot.Stations[impact.Line.ID], impact.Station.Name) {
			return fmt.Errorf("station %s does not belong to line %s: %w",
				impact.Station.Name, impact.Line.ID, ErrConsistency)
		}
		if impact.Impacted {
			impactedCount[slotKey{line: impact.Line.ID, unix: impact.Time.Unix()}]++
		}
	}
	for _, event := range result.Events {
		key := slotKey{line: event.Line.ID, unix: event.Time.Unix()}
		want := int64(0)
		if event.NImpactedStations.Valid {
			want = event.NImpactedStations.Int64
		}
		if impactedCount[key] != want {
			return fmt.Errorf("impacted station count mismatch for line %s at %s (%d != %d): %w",
				event.Line.ID, event.Time, impactedCount[key], want, ErrConsistency)
		}
	}

	return checkSessionCoverage(result.Events, cadence)
}

// checkSessionCoverage verifies that, per line, the session intervals cover
// every disruption row exactly once: each disruption row carries a session
// whose span contains its timestamp, and the spans of distinct sessions
// never overlap
func checkSessionCoverage(events []*types.ClassifiedEvent, cadence time.Duration) error {
	type sessionSpan struct {
		id   string
		span timespan.Span
	}
	perLine := make(map[string][]sessionSpan)

	for _, event := range events {
		if !event.IsDisruption {
			continue
		}
		if !event.SessionID.Valid {
			return fmt.Errorf("disruption row without session for line %s at %s: %w",
				event.Line.ID, event.Time, ErrConsistency)
		}
		// sessions span [start, end + cadence) so the last sample instant
		// is inside the span
		span := timespan.New(event.SessionStart.Time,
			event.SessionEnd.Time.Sub(event.SessionStart.Time)+cadence)
		instant := timespan.New(event.Time, time.Nanosecond)
		if _, inside := span.Intersection(instant); !inside {
			return fmt.Errorf("disruption row outside its session span for line %s at %s: %w",
				event.Line.ID, event.Time, ErrConsistency)
		}

		spans := perLine[event.Line.ID]
		if len(spans) == 0 || spans[len(spans)-1].id != event.SessionID.String {
			perLine[event.Line.ID] = append(spans, sessionSpan{id: event.SessionID.String, span: span})
		}
	}

	for lineID, spans := range perLine {
		for i := 1; i < len(spans); i++ {
			if _, overlaps := spans[i-1].span.Intersection(spans[i].span); overlaps {
				return fmt.Errorf("overlapping sessions %s and %s on line %s: %w",
					spans[i-1].id, spans[i].id, lineID, ErrConsistency)
			}
		}
	}
	return nil
}
