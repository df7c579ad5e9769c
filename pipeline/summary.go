package pipeline

import (
	"fmt"
	"math"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/hako/durafmt"
	altmath "github.com/pkg/math"
	"github.com/rickb777/date"

	"github.com/cphtransit/disruptionscph/types"
)

// DaySummary is the per-day rollup behind the dashboard's history page
type DaySummary struct {
	Day               date.Date
	Samples           int
	DisruptionSamples int
	// DisruptionPct is the share of the day's samples that were disruptions
	DisruptionPct float64
	// AvgSessionMinutes averages the session duration over the day's
	// disruption samples
	AvgSessionMinutes float64
	// AvgImpactedStations averages the impacted-station count over the
	// day's samples with a known status
	AvgImpactedStations float64
	// TrendPct is the trailing moving average of DisruptionPct
	TrendPct float64
}

// Summarize rolls the classified timeline up into one row per calendar day,
// with a trailing moving average of the disruption share over the given
// window of days. The timeline is gap-filled, so every day in the covered
// range comes out, even if all its samples are Unknown.
func Summarize(events []*types.ClassifiedEvent, window int) []*DaySummary {
	summaries := []*DaySummary{}
	var current *DaySummary
	var sessionMinutes, impactedSum float64
	sessionRows, impactRows := 0, 0

	flush := func() {
		if current == nil {
			return
		}
		if current.Samples > 0 {
			current.DisruptionPct = round1(100 * float64(current.DisruptionSamples) / float64(current.Samples))
		}
		if sessionRows > 0 {
			current.AvgSessionMinutes = round1(sessionMinutes / float64(sessionRows))
		}
		if impactRows > 0 {
			current.AvgImpactedStations = round1(impactedSum / float64(impactRows))
		}
		summaries = append(summaries, current)
	}

	for _, event := range events {
		if current == nil || !event.Date.Equal(current.Day) {
			flush()
			current = &DaySummary{Day: event.Date}
			sessionMinutes, impactedSum = 0, 0
			sessionRows, impactRows = 0, 0
		}
		current.Samples++
		if event.IsDisruption {
			current.DisruptionSamples++
		}
		if event.SessionDuration.Valid {
			sessionMinutes += float64(event.SessionDuration.Int64)
			sessionRows++
		}
		if event.NImpactedStations.Valid {
			impactedSum += float64(event.NImpactedStations.Int64)
			impactRows++
		}
	}
	flush()

	ma := movingaverage.New(altmath.Max(1, window))
	for _, summary := range summaries {
		ma.Add(summary.DisruptionPct)
		summary.TrendPct = round1(ma.Avg())
	}
	return summaries
}

func (summary *DaySummary) String() string {
	avg := time.Duration(summary.AvgSessionMinutes * float64(time.Minute))
	return fmt.Sprintf("%s: %.1f%% disrupted, avg session %s, avg %.1f stations impacted",
		summary.Day, summary.DisruptionPct,
		durafmt.Parse(avg.Truncate(time.Minute)).String(),
		summary.AvgImpactedStations)
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
