package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the non-secret knobs of the batch runner. Everything has a
// sensible default so a missing settings file is not an error.
type Settings struct {
	// CadenceMinutes is the sampling interval the scraper aims for
	CadenceMinutes int `yaml:"cadenceMinutes"`
	// RunIntervalMinutes is how often the pipeline recomputes the outputs
	RunIntervalMinutes int `yaml:"runIntervalMinutes"`
	// SnapshotTTLMinutes is how long a reference snapshot is reused before
	// the externally edited mapping tables are re-read
	SnapshotTTLMinutes int `yaml:"snapshotTTLMinutes"`
	// SummaryWindowDays is the moving-average window of the daily summary
	SummaryWindowDays int `yaml:"summaryWindowDays"`
}

func loadSettings(path string) (*Settings, error) {
	settings := &Settings{
		CadenceMinutes:     10,
		RunIntervalMinutes: 60,
		SnapshotTTLMinutes: 360,
		SummaryWindowDays:  7,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loadSettings: %s", err)
	}
	err = yaml.Unmarshal(data, settings)
	if err != nil {
		return nil, fmt.Errorf("loadSettings: %s", err)
	}

	if settings.CadenceMinutes <= 0 {
		return nil, fmt.Errorf("loadSettings: cadenceMinutes must be positive")
	}
	if settings.RunIntervalMinutes <= 0 {
		return nil, fmt.Errorf("loadSettings: runIntervalMinutes must be positive")
	}
	return settings, nil
}

// Cadence returns the sampling cadence as a duration
func (settings *Settings) Cadence() time.Duration {
	return time.Duration(settings.CadenceMinutes) * time.Minute
}

// RunInterval returns the pause between pipeline runs
func (settings *Settings) RunInterval() time.Duration {
	return time.Duration(settings.RunIntervalMinutes) * time.Minute
}

// SnapshotTTL returns how long reference snapshots are cached
func (settings *Settings) SnapshotTTL() time.Duration {
	return time.Duration(settings.SnapshotTTLMinutes) * time.Minute
}
