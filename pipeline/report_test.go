package pipeline

import (
	"testing"
	"time"

	"github.com/rickb777/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cphtransit/disruptionscph/types"
)

func TestUnmappedReportAggregation(t *testing.T) {
	report := newUnmappedReport()
	for i := 0; i < 8; i++ {
		report.countRow()
	}
	report.record("Signalfejl", date.New(2026, time.May, 4))
	report.record("Signalfejl", date.New(2026, time.May, 2))
	report.record("Sporarbejde", date.New(2026, time.May, 6))

	assert.True(t, report.HasUnmapped())
	assert.Equal(t, 3, report.UnmappedRows)
	assert.InDelta(t, 37.5, report.Pct(), 0.0001)

	statuses := report.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "Signalfejl", statuses[0].Status)
	assert.Equal(t, 2, statuses[0].Rows)
	assert.Equal(t, date.New(2026, time.May, 2), statuses[0].First)
	assert.Equal(t, date.New(2026, time.May, 4), statuses[0].Last)
	assert.Equal(t, "Sporarbejde", statuses[1].Status)

	first, last := report.DateRange()
	assert.Equal(t, date.New(2026, time.May, 2), first)
	assert.Equal(t, date.New(2026, time.May, 6), last)
}

func TestUnmappedReportEmpty(t *testing.T) {
	report := newUnmappedReport()
	report.countRow()
	assert.False(t, report.HasUnmapped())
	assert.Equal(t, 0.0, report.Pct())
	assert.Equal(t, "all service status messages have been mapped", report.String())
}

func TestUnmappedReportString(t *testing.T) {
	report := newUnmappedReport()
	for i := 0; i < 4; i++ {
		report.countRow()
	}
	report.record("Signalfejl", date.New(2026, time.May, 4))

	// single date, Danish month name
	assert.Equal(t, "1 unmapped status message(s) on 4. maj 2026 (25.0% of rows)", report.String())

	report.record("Signalfejl", date.New(2026, time.June, 1))
	assert.Contains(t, report.String(), "between 4. maj 2026 and 1. juni 2026")
}

func TestMergeDowntime(t *testing.T) {
	snapshot := testSnapshot()
	onDay := classifiedAt(t, snapshot, "2026-05-01 08:00", "M1", msgNormal)
	offDay := classifiedAt(t, snapshot, "2026-05-02 08:00", "M1", msgNormal)

	MergeDowntime([]*types.ClassifiedEvent{onDay, offDay}, snapshot)

	assert.True(t, onDay.SystemDowntime)
	assert.Equal(t, "Scraper host offline", onDay.DowntimeReason.String)
	assert.False(t, offDay.SystemDowntime)
	assert.False(t, offDay.DowntimeReason.Valid)
}
