package pipeline

import (
	"database/sql"
	"math"

	"github.com/cphtransit/disruptionscph/types"
)

// ExpandStationImpact expands the classified timeline into one row per
// (timestamp, line, station) and merges the impacted-station aggregates back
// onto the timeline rows. Stations not yet inaugurated at a timestamp get no
// row at all, so percentage denominators follow the topology in effect at
// that time. Unknown rows keep NULL aggregates: no observation means no
// impact claim either way.
func ExpandStationImpact(events []*types.ClassifiedEvent, snapshot *Snapshot) []*types.StationImpact {
	impacts := []*types.StationImpact{}

	for _, event := range events {
		affected := make(map[string]bool, len(event.AffectedStations))
		for _, name := range event.AffectedStations {
			affected[name] = true
		}

		open := 0
		impacted := 0
		for _, station := range snapshot.Stations[event.Line.ID] {
			if !station.OpenAt(event.Time) {
				continue
			}
			open++
			hit := affected[station.Name]
			if hit {
				impacted++
			}
			impacts = append(impacts, &types.StationImpact{
				Time:     event.Time,
				Line:     event.Line,
				Station:  station,
				Impacted: hit,
			})
		}

		if event.Category == types.CategoryUnknown {
			continue
		}
		event.NImpactedStations = sql.NullInt64{Int64: int64(impacted), Valid: true}
		pct := 0.0
		if open > 0 {
			pct = 100 * float64(impacted) / float64(open)
		}
		event.PctImpactedStations = sql.NullFloat64{
			Float64: math.Round(pct*10) / 10,
			Valid:   true,
		}
	}
	return impacts
}
