package types

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
	"github.com/rickb777/date"
)

// ClassifiedEvent is one row of the enriched timeline: a cadence-aligned
// (line, timestamp) pair with its resolved status meaning and all derived
// fields. The table is rebuilt from scratch on every pipeline run.
type ClassifiedEvent struct {
	Time time.Time
	Line *Line

	// RawStatus is the original message; for gap-filled rows it is the
	// "Unknown" sentinel
	RawStatus string
	// Observed is false for gap-filled rows
	Observed bool
	// Unmapped is true when the raw message had no mapping entry
	Unmapped bool

	Category      string
	CategoryShort string
	Reason        string
	IsDisruption  bool

	Date      date.Date
	Weekday   time.Weekday
	DayType   string
	Hour      int
	TimeOfDay string
	RushHour  string

	// Impact flags stay NULL on Unknown rows: absence of data is not
	// absence of impact
	ClosedForMaintenance sql.NullBool
	Delayed              sql.NullBool
	NotRunning           sql.NullBool
	SkippingStations     sql.NullBool
	OneTrackOnly         sql.NullBool
	TrainChanging        sql.NullBool

	// AffectedStations is the resolved, line-validated station name set,
	// sorted; nil on Unknown rows
	AffectedStations []string

	SessionID       sql.NullString
	SessionStart    pq.NullTime
	SessionEnd      pq.NullTime
	SessionDuration sql.NullInt64

	NImpactedStations   sql.NullInt64
	PctImpactedStations sql.NullFloat64

	SystemDowntime bool
	DowntimeReason sql.NullString
}

// GetClassifiedEvents returns a slice with the whole classified timeline,
// oldest first
func GetClassifiedEvents(node sqalx.Node) ([]*ClassifiedEvent, error) {
	return getClassifiedEventsWithSelect(node, sdb.Select())
}

// GetClassifiedEventsBetween returns the classified timeline rows in [start, end]
func GetClassifiedEventsBetween(node sqalx.Node, start time.Time, end time.Time) ([]*ClassifiedEvent, error) {
	s := sdb.Select().
		Where(sq.Expr("timestamp BETWEEN ? AND ?", start, end))
	return getClassifiedEventsWithSelect(node, s)
}

func getClassifiedEventsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*ClassifiedEvent, error) {
	events := []*ClassifiedEvent{}

	tx, err := node.Beginx()
	if err != nil {
		return events, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("timestamp", "mline", "raw_status", "observed", "unmapped",
		"category", "category_short", "reason", "is_disruption",
		"day", "weekday", "day_type", "hour", "time_of_day", "rush_hour",
		"closed_for_maintenance", "delayed", "not_running", "skipping_stations",
		"one_track_only", "train_changing", "affected_stations",
		"session_id", "session_start", "session_end", "session_duration",
		"n_impacted_stations", "pct_impacted_stations",
		"system_downtime", "downtime_reason").
		From("operation_timeline").
		OrderBy("timestamp ASC", "mline ASC").
		RunWith(tx).Query()
	if err != nil {
		return events, fmt.Errorf("getClassifiedEventsWithSelect: %s", err)
	}
	defer rows.Close()

	lineIDs := []string{}
	for rows.Next() {
		var event ClassifiedEvent
		var lineID string
		var day time.Time
		var weekday int
		var affected pq.StringArray
		err := rows.Scan(
			&event.Time,
			&lineID,
			&event.RawStatus,
			&event.Observed,
			&event.Unmapped,
			&event.Category,
			&event.CategoryShort,
			&event.Reason,
			&event.IsDisruption,
			&day,
			&weekday,
			&event.DayType,
			&event.Hour,
			&event.TimeOfDay,
			&event.RushHour,
			&event.ClosedForMaintenance,
			&event.Delayed,
			&event.NotRunning,
			&event.SkippingStations,
			&event.OneTrackOnly,
			&event.TrainChanging,
			&affected,
			&event.SessionID,
			&event.SessionStart,
			&event.SessionEnd,
			&event.SessionDuration,
			&event.NImpactedStations,
			&event.PctImpactedStations,
			&event.SystemDowntime,
			&event.DowntimeReason)
		if err != nil {
			return events, fmt.Errorf("getClassifiedEventsWithSelect: %s", err)
		}
		event.Date = date.NewAt(day)
		event.Weekday = time.Weekday(weekday)
		event.AffectedStations = []string(affected)
		events = append(events, &event)
		lineIDs = append(lineIDs, lineID)
	}
	if err := rows.Err(); err != nil {
		return events, fmt.Errorf("getClassifiedEventsWithSelect: %s", err)
	}
	for i := range lineIDs {
		events[i].Line, err = GetLine(tx, lineIDs[i])
		if err != nil {
			return events, fmt.Errorf("getClassifiedEventsWithSelect: %s", err)
		}
	}
	return events, nil
}

// ReplaceClassifiedEvents replaces the whole classified timeline with the
// given rows, in a single transaction. Readers always see either the
// previous complete timeline or the new one.
func ReplaceClassifiedEvents(node sqalx.Node, events []*ClassifiedEvent) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("operation_timeline").
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("ReplaceClassifiedEvents: %s", err)
	}

	for _, event := range events {
		err = event.insert(tx)
		if err != nil {
			return fmt.Errorf("ReplaceClassifiedEvents: %s", err)
		}
	}
	return tx.Commit()
}

func (event *ClassifiedEvent) insert(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("operation_timeline").
		Columns("timestamp", "mline", "raw_status", "observed", "unmapped",
			"category", "category_short", "reason", "is_disruption",
			"day", "weekday", "day_type", "hour", "time_of_day", "rush_hour",
			"closed_for_maintenance", "delayed", "not_running", "skipping_stations",
			"one_track_only", "train_changing", "affected_stations",
			"session_id", "session_start", "session_end", "session_duration",
			"n_impacted_stations", "pct_impacted_stations",
			"system_downtime", "downtime_reason").
		Values(event.Time, event.Line.ID, event.RawStatus, event.Observed, event.Unmapped,
			event.Category, event.CategoryShort, event.Reason, event.IsDisruption,
			event.Date.UTC(), int(event.Weekday), event.DayType, event.Hour, event.TimeOfDay, event.RushHour,
			event.ClosedForMaintenance, event.Delayed, event.NotRunning, event.SkippingStations,
			event.OneTrackOnly, event.TrainChanging, pq.StringArray(event.AffectedStations),
			event.SessionID, event.SessionStart, event.SessionEnd, event.SessionDuration,
			event.NImpactedStations, event.PctImpactedStations,
			event.SystemDowntime, event.DowntimeReason).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddClassifiedEvent: " + err.Error())
	}
	return tx.Commit()
}
