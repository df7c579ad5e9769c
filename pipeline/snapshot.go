package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/gbl08ma/sqalx"
	cache "github.com/patrickmn/go-cache"
	"github.com/rickb777/date"

	"github.com/cphtransit/disruptionscph/types"
)

// Snapshot is an immutable copy of all reference tables, taken at the start
// of a pipeline run. The mapping tables are edited by hand between runs, so
// the pipeline never reads them directly: every run is a pure function of
// (raw events, snapshot).
type Snapshot struct {
	Lines         []*types.Line
	Stations      map[string][]*types.Station
	Mapping       map[string]*types.StatusMapping
	HourBuckets   map[int]string
	MorningRush   *types.RushWindow
	AfternoonRush *types.RushWindow
	Downtime      map[date.Date]string
	Taken         time.Time

	normal *types.StatusMapping
}

// LoadSnapshot reads all reference tables into a Snapshot. Missing required
// rows make the whole run fail with ErrMissingReference.
func LoadSnapshot(node sqalx.Node) (*Snapshot, error) {
	tx, err := node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Commit() // read-only tx

	snapshot := &Snapshot{
		Stations:    make(map[string][]*types.Station),
		Mapping:     make(map[string]*types.StatusMapping),
		HourBuckets: make(map[int]string),
		Downtime:    make(map[date.Date]string),
		Taken:       time.Now(),
	}

	snapshot.Lines, err = types.GetLines(tx)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: %s", err)
	}
	if len(snapshot.Lines) == 0 {
		return nil, fmt.Errorf("LoadSnapshot: no lines registered: %w", ErrMissingReference)
	}

	for _, line := range snapshot.Lines {
		stations, err := line.Stations(tx)
		if err != nil {
			return nil, fmt.Errorf("LoadSnapshot: %s", err)
		}
		snapshot.Stations[line.ID] = stations
	}

	mappings, err := types.GetStatusMappings(tx)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: %s", err)
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("LoadSnapshot: status mapping table is empty: %w", ErrMissingReference)
	}
	for _, mapping := range mappings {
		snapshot.Mapping[mapping.Status] = mapping
	}

	buckets, err := types.GetHourBuckets(tx)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: %s", err)
	}
	for _, bucket := range buckets {
		snapshot.HourBuckets[bucket.Hour] = bucket.Label
	}
	for hour := 0; hour < 24; hour++ {
		if _, present := snapshot.HourBuckets[hour]; !present {
			return nil, fmt.Errorf("LoadSnapshot: no bucket for hour %d: %w", hour, ErrMissingReference)
		}
	}

	snapshot.MorningRush, err = types.GetRushWindow(tx, types.RushWindowMorning)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: no morning rush window: %w", ErrMissingReference)
	}
	snapshot.AfternoonRush, err = types.GetRushWindow(tx, types.RushWindowAfternoon)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: no afternoon rush window: %w", ErrMissingReference)
	}

	downtime, err := types.GetDowntimeDays(tx)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: %s", err)
	}
	for _, day := range downtime {
		snapshot.Downtime[day.Day] = day.Reason
	}

	return snapshot, nil
}

// LineByID returns the snapshot's line with the given ID, or nil
func (snapshot *Snapshot) LineByID(id string) *types.Line {
	for _, line := range snapshot.Lines {
		if line.ID == id {
			return line
		}
	}
	return nil
}

// NormalMapping returns the canonical normal-service mapping row: the first
// mapping (in raw text order) categorized as normal service with no impact
// flags set. Statuses that are only meaningful inside their validity window
// are overridden with this row's values outside of it. A synthetic row is
// returned if the table has no suitable entry.
func (snapshot *Snapshot) NormalMapping() *types.StatusMapping {
	if snapshot.normal != nil {
		return snapshot.normal
	}
	var keys []string
	for key := range snapshot.Mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		mapping := snapshot.Mapping[key]
		if mapping.Category != types.CategoryNormal {
			continue
		}
		if mapping.ClosedForMaintenance || mapping.Delayed || mapping.NotRunning ||
			mapping.SkippingStations || mapping.OneTrackOnly || mapping.TrainChanging {
			continue
		}
		snapshot.normal = mapping
		return mapping
	}
	snapshot.normal = &types.StatusMapping{
		Category: types.CategoryNormal,
		Reason:   "Not applicable",
	}
	return snapshot.normal
}

// SnapshotSource hands out reference snapshots, reloading them from the
// database only when the cached one is older than the TTL
type SnapshotSource struct {
	node  sqalx.Node
	cache *cache.Cache
}

const snapshotCacheKey = "reference-snapshot"

// NewSnapshotSource returns a SnapshotSource caching snapshots for ttl
func NewSnapshotSource(node sqalx.Node, ttl time.Duration) *SnapshotSource {
	return &SnapshotSource{
		node:  node,
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// Snapshot returns the cached snapshot, loading a fresh one if needed
func (source *SnapshotSource) Snapshot() (*Snapshot, error) {
	if value, present := source.cache.Get(snapshotCacheKey); present {
		return value.(*Snapshot), nil
	}
	snapshot, err := LoadSnapshot(source.node)
	if err != nil {
		return nil, err
	}
	source.cache.SetDefault(snapshotCacheKey, snapshot)
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next call reloads it
func (source *SnapshotSource) Invalidate() {
	source.cache.Delete(snapshotCacheKey)
}
