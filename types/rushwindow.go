package types

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Rush window labels. Exactly one window per label is expected to be
// configured.
const (
	RushWindowMorning   = "Morning"
	RushWindowAfternoon = "Afternoon"
)

// RushWindow is a configured rush-hour window. The window covers
// [Start, End), matching the official operator definition.
type RushWindow struct {
	Label string
	Start Clock
	End   Clock
}

// GetRushWindows returns a slice with all configured rush windows
func GetRushWindows(node sqalx.Node) ([]*RushWindow, error) {
	return getRushWindowsWithSelect(node, sdb.Select())
}

func getRushWindowsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RushWindow, error) {
	windows := []*RushWindow{}

	tx, err := node.Beginx()
	if err != nil {
		return windows, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("label", "time_start", "time_end").
		From("rush_window").
		OrderBy("time_start ASC").
		RunWith(tx).Query()
	if err != nil {
		return windows, fmt.Errorf("getRushWindowsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var window RushWindow
		err := rows.Scan(
			&window.Label,
			&window.Start,
			&window.End)
		if err != nil {
			return windows, fmt.Errorf("getRushWindowsWithSelect: %s", err)
		}
		windows = append(windows, &window)
	}
	if err := rows.Err(); err != nil {
		return windows, fmt.Errorf("getRushWindowsWithSelect: %s", err)
	}
	return windows, nil
}

// GetRushWindow returns the RushWindow with the given label
func GetRushWindow(node sqalx.Node, label string) (*RushWindow, error) {
	s := sdb.Select().
		Where(sq.Eq{"label": label})
	windows, err := getRushWindowsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, errors.New("RushWindow not found")
	}
	return windows[0], nil
}

// Contains returns whether the given time of day falls inside this window
func (window *RushWindow) Contains(c Clock) bool {
	return c >= window.Start && c < window.End
}

// Update adds or updates the rush window
func (window *RushWindow) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("rush_window").
		Columns("label", "time_start", "time_end").
		Values(window.Label, window.Start, window.End).
		Suffix("ON CONFLICT (label) DO UPDATE SET time_start = ?, time_end = ?",
			window.Start, window.End).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddRushWindow: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the rush window
func (window *RushWindow) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("rush_window").
		Where(sq.Eq{"label": window.Label}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRushWindow: %s", err)
	}
	return tx.Commit()
}
