package types

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// StationImpact records whether one station was impacted at one
// cadence-aligned instant. Only stations already inaugurated at the
// timestamp get a row; the table is rebuilt on every pipeline run.
type StationImpact struct {
	Time     time.Time
	Line     *Line
	Station  *Station
	Impacted bool
}

// GetStationImpacts returns a slice with all station impact rows, oldest first
func GetStationImpacts(node sqalx.Node) ([]*StationImpact, error) {
	return getStationImpactsWithSelect(node, sdb.Select())
}

// GetStationImpactsBetween returns the station impact rows in [start, end]
func GetStationImpactsBetween(node sqalx.Node, start time.Time, end time.Time) ([]*StationImpact, error) {
	s := sdb.Select().
		Where(sq.Expr("timestamp BETWEEN ? AND ?", start, end))
	return getStationImpactsWithSelect(node, s)
}

func getStationImpactsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*StationImpact, error) {
	impacts := []*StationImpact{}

	tx, err := node.Beginx()
	if err != nil {
		return impacts, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("timestamp", "mline", "station", "impacted").
		From("station_impact").
		OrderBy("timestamp ASC", "mline ASC", "station ASC").
		RunWith(tx).Query()
	if err != nil {
		return impacts, fmt.Errorf("getStationImpactsWithSelect: %s", err)
	}
	defer rows.Close()

	lineIDs := []string{}
	stationIDs := []string{}
	for rows.Next() {
		var impact StationImpact
		var lineID, stationID string
		err := rows.Scan(
			&impact.Time,
			&lineID,
			&stationID,
			&impact.Impacted)
		if err != nil {
			return impacts, fmt.Errorf("getStationImpactsWithSelect: %s", err)
		}
		impacts = append(impacts, &impact)
		lineIDs = append(lineIDs, lineID)
		stationIDs = append(stationIDs, stationID)
	}
	if err := rows.Err(); err != nil {
		return impacts, fmt.Errorf("getStationImpactsWithSelect: %s", err)
	}
	for i := range lineIDs {
		impacts[i].Line, err = GetLine(tx, lineIDs[i])
		if err != nil {
			return impacts, fmt.Errorf("getStationImpactsWithSelect: %s", err)
		}
		impacts[i].Station, err = GetStation(tx, stationIDs[i])
		if err != nil {
			return impacts, fmt.Errorf("getStationImpactsWithSelect: %s", err)
		}
	}
	return impacts, nil
}

// ReplaceStationImpacts replaces the whole station impact table with the
// given rows, in a single transaction
func ReplaceStationImpacts(node sqalx.Node, impacts []*StationImpact) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("station_impact").
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("ReplaceStationImpacts: %s", err)
	}

	for _, impact := range impacts {
		_, err = sdb.Insert("station_impact").
			Columns("timestamp", "mline", "station", "impacted").
			Values(impact.Time, impact.Line.ID, impact.Station.ID, impact.Impacted).
			RunWith(tx).Exec()
		if err != nil {
			return errors.New("AddStationImpact: " + err.Error())
		}
	}
	return tx.Commit()
}
