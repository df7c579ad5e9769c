package types

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var sdb sq.StatementBuilderType

func init() {
	sdb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Status categories as resolved by the status mapping table
const (
	CategoryNormal      = "Normal service"
	CategoryUnknown     = "Unknown"
	CategoryMaintenance = "Closed for maintenance"
)

// CategoryShortDisruption is the collapsed label for every category that is
// neither normal service, unknown nor planned maintenance
const CategoryShortDisruption = "Disruption"

// Day types derived from the weekday
const (
	DayTypeWorkday = "Workday"
	DayTypeWeekend = "Weekend"
)

// Rush hour labels
const (
	RushHourMorning   = "Morning rush hour"
	RushHourAfternoon = "Afternoon rush hour"
	RushHourRegular   = "Regular hour"
)

// ShortCategory collapses a status category into the reduced set used by the
// dashboard: normal service, unknown and maintenance stay as they are,
// everything else is a disruption
func ShortCategory(category string) string {
	switch category {
	case CategoryNormal, CategoryUnknown, CategoryMaintenance:
		return category
	}
	return CategoryShortDisruption
}

// IsDisruptionCategory returns whether a status category counts as a
// disruption (anything that is not normal service and not unknown)
func IsDisruptionCategory(category string) bool {
	return category != CategoryNormal && category != CategoryUnknown
}

func getCacheKey(objtype string, other ...interface{}) string {
	elem := make([]string, len(other))
	for i, e := range other {
		elem[i] = fmt.Sprint(e)
	}
	return strings.Join(append([]string{"do", objtype}, elem...), "-")
}
