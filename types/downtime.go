package types

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/rickb777/date"
)

// DowntimeDay marks a date where the collection side was known to be broken.
// Rows for such dates are kept; the flag is advisory and surfaced on the
// dashboard so readers can discount those days.
type DowntimeDay struct {
	Day    date.Date
	Reason string
}

// GetDowntimeDays returns a slice with all registered downtime days
func GetDowntimeDays(node sqalx.Node) ([]*DowntimeDay, error) {
	return getDowntimeDaysWithSelect(node, sdb.Select())
}

func getDowntimeDaysWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*DowntimeDay, error) {
	days := []*DowntimeDay{}

	tx, err := node.Beginx()
	if err != nil {
		return days, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("day", "reason").
		From("system_downtime").
		OrderBy("day ASC").
		RunWith(tx).Query()
	if err != nil {
		return days, fmt.Errorf("getDowntimeDaysWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day DowntimeDay
		var d time.Time
		err := rows.Scan(
			&d,
			&day.Reason)
		if err != nil {
			return days, fmt.Errorf("getDowntimeDaysWithSelect: %s", err)
		}
		day.Day = date.NewAt(d)
		days = append(days, &day)
	}
	if err := rows.Err(); err != nil {
		return days, fmt.Errorf("getDowntimeDaysWithSelect: %s", err)
	}
	return days, nil
}

// GetDowntimeDay returns the DowntimeDay for the given date
func GetDowntimeDay(node sqalx.Node, day date.Date) (*DowntimeDay, error) {
	s := sdb.Select().
		Where(sq.Eq{"day": day.UTC()})
	days, err := getDowntimeDaysWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, errors.New("DowntimeDay not found")
	}
	return days[0], nil
}

// Update adds or updates the downtime day
func (day *DowntimeDay) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("system_downtime").
		Columns("day", "reason").
		Values(day.Day.UTC(), day.Reason).
		Suffix("ON CONFLICT (day) DO UPDATE SET reason = ?", day.Reason).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddDowntimeDay: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the downtime day
func (day *DowntimeDay) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("system_downtime").
		Where(sq.Eq{"day": day.Day.UTC()}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveDowntimeDay: %s", err)
	}
	return tx.Commit()
}
