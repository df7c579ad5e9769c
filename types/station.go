package types

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
	"github.com/rickb777/date"
)

// Station is a metro station. A station can be served by more than one line
// (the shared trunks of M1/M2 and M3/M4). Opening is the inauguration date;
// stations without one are assumed to predate all collected data.
type Station struct {
	ID         string
	Name       string
	Opening    date.Date
	HasOpening bool
}

// GetStations returns a slice with all registered stations
func GetStations(node sqalx.Node) ([]*Station, error) {
	return getStationsWithSelect(node, sdb.Select())
}

func getStationsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Station, error) {
	stations := []*Station{}

	tx, err := node.Beginx()
	if err != nil {
		return stations, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "name", "opening").
		From("station").
		RunWith(tx).Query()
	if err != nil {
		return stations, fmt.Errorf("getStationsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var station Station
		var opening pq.NullTime
		err := rows.Scan(
			&station.ID,
			&station.Name,
			&opening)
		if err != nil {
			return stations, fmt.Errorf("getStationsWithSelect: %s", err)
		}
		if opening.Valid {
			station.Opening = date.NewAt(opening.Time)
			station.HasOpening = true
		}
		stations = append(stations, &station)
	}
	if err := rows.Err(); err != nil {
		return stations, fmt.Errorf("getStationsWithSelect: %s", err)
	}
	return stations, nil
}

// GetStation returns the Station with the given ID
func GetStation(node sqalx.Node, id string) (*Station, error) {
	if value, present := node.Load(getCacheKey("station", id)); present {
		return value.(*Station), nil
	}
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	stations, err := getStationsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, errors.New("Station not found")
	}
	node.Store(getCacheKey("station", id), stations[0])
	return stations[0], nil
}

// OpenAt returns whether this station was already part of the network at the
// given instant
func (station *Station) OpenAt(t time.Time) bool {
	if !station.HasOpening {
		return true
	}
	return !station.Opening.After(date.NewAt(t))
}

// Lines returns the lines serving this station
func (station *Station) Lines(node sqalx.Node) ([]*Line, error) {
	s := sdb.Select().
		Join("line_has_station ON station_id = ? AND line_id = id", station.ID)
	return getLinesWithSelect(node, s)
}

// Update adds or updates the station
func (station *Station) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	opening := pq.NullTime{
		Time:  station.Opening.UTC(),
		Valid: station.HasOpening,
	}

	_, err = sdb.Insert("station").
		Columns("id", "name", "opening").
		Values(station.ID, station.Name, opening).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = ?, opening = ?",
			station.Name, opening).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddStation: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the station
func (station *Station) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("line_has_station").
		Where(sq.Eq{"station_id": station.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveStation: %s", err)
	}

	_, err = sdb.Delete("station").
		Where(sq.Eq{"id": station.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveStation: %s", err)
	}
	return tx.Commit()
}
