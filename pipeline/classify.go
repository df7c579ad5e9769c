package pipeline

import (
	"database/sql"
	"sort"
	"time"

	"github.com/rickb777/date"
	funk "github.com/thoas/go-funk"

	"github.com/cphtransit/disruptionscph/types"
)

// Classify joins the completed timeline against the reference snapshot and
// resolves every derived field of the enriched timeline except the session
// and station-impact aggregates, which later stages fill in. Raw messages
// with no mapping entry never abort the run: they classify as Unknown and
// are collected in the returned report.
func Classify(samples []Sample, snapshot *Snapshot) ([]*types.ClassifiedEvent, *UnmappedReport) {
	events := make([]*types.ClassifiedEvent, 0, len(samples))
	report := newUnmappedReport()

	for _, sample := range samples {
		event := &types.ClassifiedEvent{
			Time:      sample.Time,
			Line:      sample.Line,
			RawStatus: sample.Status,
			Observed:  sample.Observed,
		}
		fillCalendar(event, snapshot)
		report.countRow()

		mapping := snapshot.Mapping[sample.Status]
		if mapping == nil && sample.Status != UnknownStatusText {
			event.Unmapped = true
			report.record(sample.Status, event.Date)
		}
		if mapping != nil {
			valid, err := mapping.ValidAt(types.ClockOf(sample.Time))
			if err != nil {
				// malformed interval in the mapping table: treat the
				// status as always applicable
				valid = true
			}
			if !valid {
				// the message only means something inside its validity
				// window; outside of it the line is running normally
				mapping = snapshot.NormalMapping()
			}
		}

		if mapping == nil {
			event.Category = types.CategoryUnknown
			event.Reason = "Unspecified"
		} else {
			event.Category = mapping.Category
			event.Reason = mapping.Reason
			if event.Reason == "" {
				event.Reason = "Unspecified"
			}
		}

		if event.Category != types.CategoryUnknown {
			event.ClosedForMaintenance = boolFlag(mapping.ClosedForMaintenance)
			event.Delayed = boolFlag(mapping.Delayed)
			event.NotRunning = boolFlag(mapping.NotRunning)
			event.SkippingStations = boolFlag(mapping.SkippingStations)
			event.OneTrackOnly = boolFlag(mapping.OneTrackOnly)
			event.TrainChanging = boolFlag(mapping.TrainChanging)
			event.AffectedStations = resolveAffectedStations(mapping, sample.Line, snapshot)
		}

		event.IsDisruption = types.IsDisruptionCategory(event.Category)
		event.CategoryShort = types.ShortCategory(event.Category)
		events = append(events, event)
	}
	return events, report
}

func fillCalendar(event *types.ClassifiedEvent, snapshot *Snapshot) {
	event.Date = date.NewAt(event.Time)
	event.Weekday = event.Time.Weekday()
	if event.Weekday == time.Saturday || event.Weekday == time.Sunday {
		event.DayType = types.DayTypeWeekend
	} else {
		event.DayType = types.DayTypeWorkday
	}
	event.Hour = event.Time.Hour()
	event.TimeOfDay = snapshot.HourBuckets[event.Hour]

	clock := types.ClockOf(event.Time)
	switch {
	case snapshot.MorningRush.Contains(clock):
		event.RushHour = types.RushHourMorning
	case snapshot.AfternoonRush.Contains(clock):
		event.RushHour = types.RushHourAfternoon
	default:
		event.RushHour = types.RushHourRegular
	}
}

// resolveAffectedStations expands the mapping's affected-stations descriptor
// into the sorted set of station names on the sample's line. Placeholder
// tokens expand to the full line; explicit names not belonging to the line
// are dropped silently, so only the aggregate counts can be off when the
// mapping table has a stray name.
func resolveAffectedStations(mapping *types.StatusMapping, line *types.Line, snapshot *Snapshot) []string {
	tokens := mapping.AffectedTokens()
	if len(tokens) == 0 {
		return []string{}
	}

	lineStations := snapshot.Stations[line.ID]
	names := []string{}
	for _, token := range tokens {
		if token == types.AffectedAllOfRowLine || types.LineWidePlaceholderLine(token) == line.ID {
			for _, station := range lineStations {
				names = append(names, station.Name)
			}
			continue
		}
		if types.LineWidePlaceholderLine(token) != "" {
			// line-wide placeholder for another line: nothing on this
			// row's line is named
			continue
		}
		if stationOnLine(lineStations, token) {
			names = append(names, token)
		}
	}
	names = funk.UniqString(names)
	sort.Strings(names)
	return names
}

func stationOnLine(stations []*types.Station, name string) bool {
	for _, station := range stations {
		if station.Name == name {
			return true
		}
	}
	return false
}

func boolFlag(value bool) sql.NullBool {
	return sql.NullBool{Bool: value, Valid: true}
}
