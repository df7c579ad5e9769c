package main

import (
	"time"

	statsd "gopkg.in/alexcesaro/statsd.v2"

	"github.com/cphtransit/disruptionscph/pipeline"
)

// runStats is one pipeline run's worth of telemetry
type runStats struct {
	Duration          time.Duration
	TimelineRows      int
	ImpactRows        int
	UnmappedRows      int
	DisruptionMinutes map[string]int64
}

var runTelemetry = make(chan runStats, 10)

func newRunStats(result *pipeline.Result, duration time.Duration) runStats {
	stats := runStats{
		Duration:          duration,
		TimelineRows:      len(result.Events),
		ImpactRows:        len(result.Impacts),
		UnmappedRows:      result.Unmapped.UnmappedRows,
		DisruptionMinutes: make(map[string]int64),
	}
	counted := make(map[string]bool)
	for _, event := range result.Events {
		if !event.SessionID.Valid || counted[event.SessionID.String] {
			continue
		}
		counted[event.SessionID.String] = true
		stats.DisruptionMinutes[event.Line.ID] += event.SessionDuration.Int64
	}
	return stats
}

// StatsSender is meant to be called as a goroutine that handles sending
// telemetry to a statsd (or compatible) server
func StatsSender() {
	statsdAddress, present := secrets.Get("statsdAddress")
	statsdPrefix, present2 := secrets.Get("statsdPrefix")
	if !present || !present2 {
		return
	}

	c, err := statsd.New(statsd.Address(statsdAddress), statsd.Prefix(statsdPrefix))
	if err != nil {
		// If nothing is listening on the target port, an error is returned and
		// the returned client does nothing but is still usable. So we can
		// just log the error and go on.
		mainLog.Println(err)
	}
	defer c.Close()

	for stats := range runTelemetry {
		c.Gauge("pipeline_run_ms", stats.Duration.Milliseconds())
		c.Gauge("timeline_rows", stats.TimelineRows)
		c.Gauge("station_impact_rows", stats.ImpactRows)
		c.Gauge("unmapped_rows", stats.UnmappedRows)
		for lineID, minutes := range stats.DisruptionMinutes {
			c.Gauge("disruption_minutes_"+lineID, minutes)
		}
	}
}
