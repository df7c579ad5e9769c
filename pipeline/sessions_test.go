package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cphtransit/disruptionscph/types"
)

func classifiedAt(t *testing.T, snapshot *Snapshot, when string, lineID string, status string) *types.ClassifiedEvent {
	t.Helper()
	events, _ := Classify([]Sample{sampleAt(t, snapshot, when, lineID, status)}, snapshot)
	require.Len(t, events, 1)
	return events[0]
}

func TestSegmentSessionsSingleRun(t *testing.T) {
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M1", msgNormal),
		classifiedAt(t, snapshot, "2026-05-04 08:10", "M1", msgHalted),
		classifiedAt(t, snapshot, "2026-05-04 08:20", "M1", msgHalted),
		classifiedAt(t, snapshot, "2026-05-04 08:30", "M1", msgHalted),
		classifiedAt(t, snapshot, "2026-05-04 08:40", "M1", msgNormal),
	}

	SegmentSessions(events, testCadence)

	assert.False(t, events[0].SessionID.Valid)
	assert.False(t, events[4].SessionID.Valid)

	ids := make(map[string]bool)
	for _, event := range events[1:4] {
		require.True(t, event.SessionID.Valid)
		ids[event.SessionID.String] = true
		assert.Equal(t, mustTime(t, "2026-05-04 08:10"), event.SessionStart.Time)
		assert.Equal(t, mustTime(t, "2026-05-04 08:30"), event.SessionEnd.Time)
		// 3 samples at a 10-minute cadence stand for 30 minutes of outage
		assert.EqualValues(t, 30, event.SessionDuration.Int64)
	}
	assert.Len(t, ids, 1)
}

func TestSegmentSessionsSingleSampleFloor(t *testing.T) {
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M1", msgDelays),
	}

	SegmentSessions(events, testCadence)
	require.True(t, events[0].SessionID.Valid)
	assert.EqualValues(t, 10, events[0].SessionDuration.Int64)
}

func TestSegmentSessionsBreakOnAnyChange(t *testing.T) {
	// the same disruptive status interrupted by a gap-filled Unknown slot
	// is two distinct sessions
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M1", msgDelays),
		classifiedAt(t, snapshot, "2026-05-04 08:10", "M1", UnknownStatusText),
		classifiedAt(t, snapshot, "2026-05-04 08:20", "M1", msgDelays),
	}

	SegmentSessions(events, testCadence)

	require.True(t, events[0].SessionID.Valid)
	assert.False(t, events[1].SessionID.Valid)
	require.True(t, events[2].SessionID.Valid)
	assert.NotEqual(t, events[0].SessionID.String, events[2].SessionID.String)
	assert.EqualValues(t, 10, events[0].SessionDuration.Int64)
	assert.EqualValues(t, 10, events[2].SessionDuration.Int64)
}

func TestSegmentSessionsDistinctStatusesDistinctSessions(t *testing.T) {
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M1", msgDelays),
		classifiedAt(t, snapshot, "2026-05-04 08:10", "M1", msgHalted),
	}

	SegmentSessions(events, testCadence)
	require.True(t, events[0].SessionID.Valid)
	require.True(t, events[1].SessionID.Valid)
	assert.NotEqual(t, events[0].SessionID.String, events[1].SessionID.String)
}

func TestSegmentSessionsPerLine(t *testing.T) {
	// the same status at the same time on two lines is two sessions
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M1", msgHalted),
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M2", msgHalted),
		classifiedAt(t, snapshot, "2026-05-04 08:10", "M1", msgHalted),
		classifiedAt(t, snapshot, "2026-05-04 08:10", "M2", msgHalted),
	}

	SegmentSessions(events, testCadence)

	for _, event := range events {
		require.True(t, event.SessionID.Valid)
		assert.EqualValues(t, 20, event.SessionDuration.Int64)
	}
	assert.Equal(t, events[0].SessionID.String, events[2].SessionID.String)
	assert.Equal(t, events[1].SessionID.String, events[3].SessionID.String)
	assert.NotEqual(t, events[0].SessionID.String, events[1].SessionID.String)
}

func TestSegmentSessionsBannerBeforeValidityWindow(t *testing.T) {
	// the maintenance banner appears before its 22:00-02:00 window opens:
	// the leading row resolves to normal service and must not suppress the
	// session on the in-window rows
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 21:50", "M1", msgMaintenance),
		classifiedAt(t, snapshot, "2026-05-04 22:00", "M1", msgMaintenance),
		classifiedAt(t, snapshot, "2026-05-04 22:10", "M1", msgMaintenance),
	}
	require.False(t, events[0].IsDisruption)
	require.True(t, events[1].IsDisruption)

	SegmentSessions(events, testCadence)

	assert.False(t, events[0].SessionID.Valid)
	require.True(t, events[1].SessionID.Valid)
	require.True(t, events[2].SessionID.Valid)
	assert.Equal(t, events[1].SessionID.String, events[2].SessionID.String)
	assert.Equal(t, mustTime(t, "2026-05-04 22:00"), events[1].SessionStart.Time)
	assert.Equal(t, mustTime(t, "2026-05-04 22:10"), events[1].SessionEnd.Time)
	assert.EqualValues(t, 20, events[1].SessionDuration.Int64)
}

func TestSegmentSessionsBannerPastValidityWindow(t *testing.T) {
	// the banner stays up past the window's end: the trailing
	// normal-service row must not carry session fields or stretch the
	// session's end
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-05 01:50", "M1", msgMaintenance),
		classifiedAt(t, snapshot, "2026-05-05 02:00", "M1", msgMaintenance),
		classifiedAt(t, snapshot, "2026-05-05 02:10", "M1", msgMaintenance),
	}
	require.False(t, events[2].IsDisruption)

	SegmentSessions(events, testCadence)

	require.True(t, events[0].SessionID.Valid)
	assert.Equal(t, mustTime(t, "2026-05-05 02:00"), events[0].SessionEnd.Time)
	assert.EqualValues(t, 20, events[0].SessionDuration.Int64)
	assert.False(t, events[2].SessionID.Valid)
	assert.False(t, events[2].SessionDuration.Valid)
}

func TestSegmentSessionsSortsPerLine(t *testing.T) {
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 08:10", "M1", msgHalted),
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M1", msgHalted),
	}

	SegmentSessions(events, testCadence)

	for _, event := range events {
		require.True(t, event.SessionID.Valid)
		assert.Equal(t, mustTime(t, "2026-05-04 08:00"), event.SessionStart.Time)
		assert.Equal(t, mustTime(t, "2026-05-04 08:10"), event.SessionEnd.Time)
		assert.EqualValues(t, 20, event.SessionDuration.Int64)
	}
	assert.Equal(t, events[0].SessionID.String, events[1].SessionID.String)
}

func TestSegmentSessionsNormalAndUnknownRunsGetNone(t *testing.T) {
	snapshot := testSnapshot()
	events := []*types.ClassifiedEvent{
		classifiedAt(t, snapshot, "2026-05-04 08:00", "M1", msgNormal),
		classifiedAt(t, snapshot, "2026-05-04 08:10", "M1", msgNormal),
		classifiedAt(t, snapshot, "2026-05-04 08:20", "M1", UnknownStatusText),
	}

	SegmentSessions(events, testCadence)
	for _, event := range events {
		assert.False(t, event.SessionID.Valid)
		assert.False(t, event.SessionDuration.Valid)
	}
}
