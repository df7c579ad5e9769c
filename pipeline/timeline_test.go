package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cphtransit/disruptionscph/types"
)

func TestCompleteTimelineFillsGaps(t *testing.T) {
	snapshot := testSnapshot()
	raw := []*types.RawStatus{
		rawAt(t, snapshot, "2026-05-04 08:00", "M1", msgNormal),
		rawAt(t, snapshot, "2026-05-04 08:20", "M1", msgNormal),
	}

	samples, err := CompleteTimeline(raw, snapshot.Lines, testCadence)
	require.NoError(t, err)

	// 3 instants x 4 lines
	require.Len(t, samples, 12)

	byLine := make(map[string][]Sample)
	for _, sample := range samples {
		byLine[sample.Line.ID] = append(byLine[sample.Line.ID], sample)
	}

	m1 := byLine["M1"]
	require.Len(t, m1, 3)
	assert.Equal(t, msgNormal, m1[0].Status)
	assert.True(t, m1[0].Observed)
	assert.Equal(t, UnknownStatusText, m1[1].Status)
	assert.False(t, m1[1].Observed)
	assert.Equal(t, mustTime(t, "2026-05-04 08:10"), m1[1].Time)
	assert.Equal(t, msgNormal, m1[2].Status)

	// never-observed lines are fully gap-filled
	for _, sample := range byLine["M3"] {
		assert.Equal(t, UnknownStatusText, sample.Status)
		assert.False(t, sample.Observed)
	}
}

func TestCompleteTimelineOrdering(t *testing.T) {
	snapshot := testSnapshot()
	raw := []*types.RawStatus{
		rawAt(t, snapshot, "2026-05-04 08:10", "M4", msgNormal),
		rawAt(t, snapshot, "2026-05-04 08:00", "M2", msgNormal),
	}

	samples, err := CompleteTimeline(raw, snapshot.Lines, testCadence)
	require.NoError(t, err)
	require.Len(t, samples, 8)

	// time-major, then the reference line order within each instant
	for i, sample := range samples {
		assert.Equal(t, snapshot.Lines[i%4].ID, sample.Line.ID)
	}
	assert.Equal(t, mustTime(t, "2026-05-04 08:00"), samples[0].Time)
	assert.Equal(t, mustTime(t, "2026-05-04 08:10"), samples[4].Time)
}

func TestCompleteTimelineFloorsAndDeduplicates(t *testing.T) {
	snapshot := testSnapshot()
	raw := []*types.RawStatus{
		// both fall into the 08:00 slot; the first one seen wins
		rawAt(t, snapshot, "2026-05-04 08:03", "M1", msgDelays),
		rawAt(t, snapshot, "2026-05-04 08:07", "M1", msgNormal),
	}

	samples, err := CompleteTimeline(raw, snapshot.Lines, testCadence)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.Equal(t, mustTime(t, "2026-05-04 08:00"), samples[0].Time)
	assert.Equal(t, msgDelays, samples[0].Status)
}

func TestCompleteTimelineSkipsUnknownLines(t *testing.T) {
	snapshot := testSnapshot()
	ghost := &types.Line{ID: "M9", Name: "M9"}
	raw := []*types.RawStatus{
		{ID: "x", Time: mustTime(t, "2026-05-04 08:00"), Line: ghost, Status: msgNormal},
	}

	_, err := CompleteTimeline(raw, snapshot.Lines, testCadence)
	assert.ErrorIs(t, err, ErrNoData)

	raw = append(raw, rawAt(t, snapshot, "2026-05-04 08:00", "M1", msgNormal))
	samples, err := CompleteTimeline(raw, snapshot.Lines, testCadence)
	require.NoError(t, err)
	for _, sample := range samples {
		assert.NotEqual(t, "M9", sample.Line.ID)
	}
}

func TestCompleteTimelineRejectsBadCadence(t *testing.T) {
	snapshot := testSnapshot()
	raw := []*types.RawStatus{
		rawAt(t, snapshot, "2026-05-04 08:00", "M1", msgNormal),
	}
	_, err := CompleteTimeline(raw, snapshot.Lines, 0)
	assert.Error(t, err)
	_, err = CompleteTimeline(raw, snapshot.Lines, -time.Minute)
	assert.Error(t, err)
}
