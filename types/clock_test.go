package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	clock, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 7, clock.Hour())
	assert.Equal(t, 30, clock.Minute())
	assert.Equal(t, "07:30", clock.String())

	clock, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, Clock(0), clock)

	clock, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, Clock(23*60+59), clock)
}

func TestParseClockRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "late", "24:00", "12:60", "-1:30"} {
		_, err := ParseClock(input)
		assert.ErrorIs(t, err, ErrClockParse, "input %q", input)
	}
}

func TestClockOf(t *testing.T) {
	at := time.Date(2026, time.May, 4, 17, 29, 59, 0, time.UTC)
	assert.Equal(t, Clock(17*60+29), ClockOf(at))
}

func TestClockScan(t *testing.T) {
	var clock Clock
	require.NoError(t, clock.Scan("08:15"))
	assert.Equal(t, Clock(8*60+15), clock)

	require.NoError(t, clock.Scan(time.Date(2026, time.May, 4, 9, 45, 0, 0, time.UTC)))
	assert.Equal(t, Clock(9*60+45), clock)

	assert.Error(t, clock.Scan(42))
}

func TestRushWindowContains(t *testing.T) {
	morning := &RushWindow{Label: RushWindowMorning, Start: Clock(7 * 60), End: Clock(9 * 60)}

	assert.True(t, morning.Contains(Clock(7*60)))
	assert.True(t, morning.Contains(Clock(8*60+59)))
	// end is exclusive
	assert.False(t, morning.Contains(Clock(9*60)))
	assert.False(t, morning.Contains(Clock(6*60+59)))
}
