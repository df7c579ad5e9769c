package types

import (
	"testing"
	"time"

	"github.com/rickb777/date"
	"github.com/stretchr/testify/assert"
)

func TestShortCategory(t *testing.T) {
	assert.Equal(t, CategoryNormal, ShortCategory(CategoryNormal))
	assert.Equal(t, CategoryUnknown, ShortCategory(CategoryUnknown))
	assert.Equal(t, CategoryMaintenance, ShortCategory(CategoryMaintenance))
	assert.Equal(t, CategoryShortDisruption, ShortCategory("Delays"))
	assert.Equal(t, CategoryShortDisruption, ShortCategory("Service halted"))
}

func TestIsDisruptionCategory(t *testing.T) {
	assert.False(t, IsDisruptionCategory(CategoryNormal))
	assert.False(t, IsDisruptionCategory(CategoryUnknown))
	assert.True(t, IsDisruptionCategory(CategoryMaintenance))
	assert.True(t, IsDisruptionCategory("Delays"))
}

func TestStationOpenAt(t *testing.T) {
	always := &Station{ID: "forum", Name: "Forum"}
	assert.True(t, always.OpenAt(time.Date(2003, time.January, 1, 0, 0, 0, 0, time.UTC)))

	mozarts := &Station{
		ID: "mozarts-plads", Name: "Mozarts Plads",
		Opening: date.New(2024, time.June, 22), HasOpening: true,
	}
	assert.False(t, mozarts.OpenAt(time.Date(2024, time.June, 21, 23, 59, 0, 0, time.UTC)))
	assert.True(t, mozarts.OpenAt(time.Date(2024, time.June, 22, 5, 0, 0, 0, time.UTC)))
	assert.True(t, mozarts.OpenAt(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
}
