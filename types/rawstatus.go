package types

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// RawStatus is one observation made by the scraper: the message shown for a
// line at a certain point in time, in the original Danish wording. The raw
// log is append-only; all derived tables are recomputed from it on every run.
type RawStatus struct {
	ID     string
	Time   time.Time
	Line   *Line
	Status string
}

// GetRawStatuses returns a slice with all recorded raw statuses, oldest first
func GetRawStatuses(node sqalx.Node) ([]*RawStatus, error) {
	return getRawStatusesWithSelect(node, sdb.Select())
}

// GetRawStatusesBetween returns the raw statuses recorded in [start, end]
func GetRawStatusesBetween(node sqalx.Node, start time.Time, end time.Time) ([]*RawStatus, error) {
	s := sdb.Select().
		Where(sq.Expr("timestamp BETWEEN ? AND ?", start, end))
	return getRawStatusesWithSelect(node, s)
}

func getRawStatusesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RawStatus, error) {
	statuses := []*RawStatus{}

	tx, err := node.Beginx()
	if err != nil {
		return statuses, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "timestamp", "mline", "status").
		From("line_status_raw").
		OrderBy("timestamp ASC", "mline ASC").
		RunWith(tx).Query()
	if err != nil {
		return statuses, fmt.Errorf("getRawStatusesWithSelect: %s", err)
	}
	defer rows.Close()

	lineIDs := []string{}
	for rows.Next() {
		var status RawStatus
		var lineID string
		err := rows.Scan(
			&status.ID,
			&status.Time,
			&lineID,
			&status.Status)
		if err != nil {
			return statuses, fmt.Errorf("getRawStatusesWithSelect: %s", err)
		}
		statuses = append(statuses, &status)
		lineIDs = append(lineIDs, lineID)
	}
	if err := rows.Err(); err != nil {
		return statuses, fmt.Errorf("getRawStatusesWithSelect: %s", err)
	}
	for i := range lineIDs {
		statuses[i].Line, err = GetLine(tx, lineIDs[i])
		if err != nil {
			return statuses, fmt.Errorf("getRawStatusesWithSelect: %s", err)
		}
	}
	return statuses, nil
}

// GetRawStatus returns the RawStatus with the given ID
func GetRawStatus(node sqalx.Node, id string) (*RawStatus, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	statuses, err := getRawStatusesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, errors.New("RawStatus not found")
	}
	return statuses[0], nil
}

// Update adds or updates the raw status
func (status *RawStatus) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("line_status_raw").
		Columns("id", "timestamp", "mline", "status").
		Values(status.ID, status.Time, status.Line.ID, status.Status).
		Suffix("ON CONFLICT (id) DO UPDATE SET timestamp = ?, mline = ?, status = ?",
			status.Time, status.Line.ID, status.Status).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddRawStatus: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the raw status
func (status *RawStatus) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("line_status_raw").
		Where(sq.Eq{"id": status.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRawStatus: %s", err)
	}
	return tx.Commit()
}
