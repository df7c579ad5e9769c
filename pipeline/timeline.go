package pipeline

import (
	"fmt"
	"time"

	"github.com/cphtransit/disruptionscph/types"
)

// UnknownStatusText is the sentinel raw text used for instants where no
// observation exists. The scraper writes the same sentinel itself after
// repeated download failures, so the status mapping table carries an entry
// for it.
const UnknownStatusText = "Unknown"

// Sample is one cadence-aligned slot of the completed timeline
type Sample struct {
	Time   time.Time
	Line   *types.Line
	Status string
	// Observed is false for slots filled with the Unknown sentinel
	Observed bool
}

// CompleteTimeline densifies the raw status log: exactly one sample per
// (line, cadence-aligned instant) for every instant between the earliest and
// latest observation, inclusive. Raw rows are floored to the cadence; extra
// observations within the same slot keep the first seen one; slots with no
// observation are filled with the Unknown sentinel. Samples come out ordered
// by time, then by the given line order.
func CompleteTimeline(raw []*types.RawStatus, lines []*types.Line, cadence time.Duration) ([]Sample, error) {
	if cadence <= 0 {
		return nil, fmt.Errorf("CompleteTimeline: invalid cadence %v", cadence)
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	lineIndex := make(map[string]*types.Line)
	for _, line := range lines {
		lineIndex[line.ID] = line
	}

	type slotKey struct {
		line string
		unix int64
	}
	observed := make(map[slotKey]*types.RawStatus)
	var minTime, maxTime time.Time
	for _, status := range raw {
		if _, known := lineIndex[status.Line.ID]; !known {
			continue
		}
		aligned := status.Time.Truncate(cadence)
		if minTime.IsZero() || aligned.Before(minTime) {
			minTime = aligned
		}
		if maxTime.IsZero() || aligned.After(maxTime) {
			maxTime = aligned
		}
		key := slotKey{line: status.Line.ID, unix: aligned.Unix()}
		if _, taken := observed[key]; taken {
			// scraping more often than the cadence: keep first seen
			continue
		}
		observed[key] = status
	}
	if len(observed) == 0 {
		return nil, ErrNoData
	}

	samples := []Sample{}
	for t := minTime; !t.After(maxTime); t = t.Add(cadence) {
		for _, line := range lines {
			key := slotKey{line: line.ID, unix: t.Unix()}
			if status, present := observed[key]; present {
				samples = append(samples, Sample{
					Time:     t,
					Line:     line,
					Status:   status.Status,
					Observed: true,
				})
				continue
			}
			samples = append(samples, Sample{
				Time:   t,
				Line:   line,
				Status: UnknownStatusText,
			})
		}
	}
	return samples, nil
}
