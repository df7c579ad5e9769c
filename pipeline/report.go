package pipeline

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/goodsign/monday"
	"github.com/rickb777/date"

	"github.com/cphtransit/disruptionscph/types"
)

const advisoryDateFormat = "2. January 2006"

// UnmappedStatus describes one raw status message with no mapping entry
type UnmappedStatus struct {
	Status string
	Rows   int
	First  date.Date
	Last   date.Date
}

// UnmappedReport is the advisory data-quality report of a pipeline run:
// every distinct unmapped raw message, the date range it affects, and the
// exact share of timeline rows involved. Unmapped messages classify as
// Unknown instead of aborting the run; this report is what the dashboard's
// warning banner is built from.
type UnmappedReport struct {
	TotalRows    int
	UnmappedRows int

	byStatus map[string]*UnmappedStatus
}

func newUnmappedReport() *UnmappedReport {
	return &UnmappedReport{
		byStatus: make(map[string]*UnmappedStatus),
	}
}

func (report *UnmappedReport) countRow() {
	report.TotalRows++
}

func (report *UnmappedReport) record(status string, day date.Date) {
	report.UnmappedRows++
	entry, present := report.byStatus[status]
	if !present {
		report.byStatus[status] = &UnmappedStatus{
			Status: status,
			Rows:   1,
			First:  day,
			Last:   day,
		}
		return
	}
	entry.Rows++
	if day.Before(entry.First) {
		entry.First = day
	}
	if day.After(entry.Last) {
		entry.Last = day
	}
}

// Statuses returns the distinct unmapped messages, sorted by raw text
func (report *UnmappedReport) Statuses() []*UnmappedStatus {
	statuses := make([]*UnmappedStatus, 0, len(report.byStatus))
	for _, entry := range report.byStatus {
		statuses = append(statuses, entry)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Status < statuses[j].Status
	})
	return statuses
}

// HasUnmapped returns whether any raw message lacked a mapping entry
func (report *UnmappedReport) HasUnmapped() bool {
	return len(report.byStatus) > 0
}

// Pct returns the exact percentage of timeline rows with an unmapped status
func (report *UnmappedReport) Pct() float64 {
	if report.TotalRows == 0 {
		return 0
	}
	return 100 * float64(report.UnmappedRows) / float64(report.TotalRows)
}

// String renders the operator-facing advisory, with dates in the Danish
// locale the dashboard uses
func (report *UnmappedReport) String() string {
	if !report.HasUnmapped() {
		return "all service status messages have been mapped"
	}

	first, last := report.DateRange()
	when := monday.Format(last.UTC(), advisoryDateFormat, monday.LocaleDaDK)
	if !first.Equal(last) {
		when = fmt.Sprintf("%s and %s",
			monday.Format(first.UTC(), advisoryDateFormat, monday.LocaleDaDK),
			when)
		return fmt.Sprintf("%d unmapped status message(s) between %s (%.1f%% of rows)",
			len(report.byStatus), when, report.Pct())
	}
	return fmt.Sprintf("%d unmapped status message(s) on %s (%.1f%% of rows)",
		len(report.byStatus), when, report.Pct())
}

// DateRange returns the first and last date affected by unmapped messages
func (report *UnmappedReport) DateRange() (date.Date, date.Date) {
	var first, last date.Date
	started := false
	for _, entry := range report.byStatus {
		if !started || entry.First.Before(first) {
			first = entry.First
		}
		if !started || entry.Last.After(last) {
			last = entry.Last
		}
		started = true
	}
	return first, last
}

// MergeDowntime marks timeline rows falling on known system-downtime dates.
// Rows are never dropped; the flag is advisory.
func MergeDowntime(events []*types.ClassifiedEvent, snapshot *Snapshot) {
	for _, event := range events {
		reason, present := snapshot.Downtime[event.Date]
		if !present {
			continue
		}
		event.SystemDowntime = true
		event.DowntimeReason = sql.NullString{String: reason, Valid: true}
	}
}
