package types

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/rickb777/date"
)

// Line is a metro line
type Line struct {
	ID      string
	Name    string
	Color   string
	Opening date.Date
}

// GetLines returns a slice with all registered lines, ordered by ID
func GetLines(node sqalx.Node) ([]*Line, error) {
	return getLinesWithSelect(node, sdb.Select())
}

func getLinesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Line, error) {
	lines := []*Line{}

	tx, err := node.Beginx()
	if err != nil {
		return lines, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "name", "color", "opening").
		From("mline").
		OrderBy("id ASC").
		RunWith(tx).Query()
	if err != nil {
		return lines, fmt.Errorf("getLinesWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line Line
		var opening time.Time
		err := rows.Scan(
			&line.ID,
			&line.Name,
			&line.Color,
			&opening)
		if err != nil {
			return lines, fmt.Errorf("getLinesWithSelect: %s", err)
		}
		line.Opening = date.NewAt(opening)
		lines = append(lines, &line)
	}
	if err := rows.Err(); err != nil {
		return lines, fmt.Errorf("getLinesWithSelect: %s", err)
	}
	return lines, nil
}

// GetLine returns the Line with the given ID
func GetLine(node sqalx.Node, id string) (*Line, error) {
	if value, present := node.Load(getCacheKey("line", id)); present {
		return value.(*Line), nil
	}
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	lines, err := getLinesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("Line not found")
	}
	node.Store(getCacheKey("line", id), lines[0])
	return lines[0], nil
}

// Stations returns the stations served by this line, in line order
func (line *Line) Stations(node sqalx.Node) ([]*Station, error) {
	s := sdb.Select().
		Join("line_has_station ON line_id = ? AND station_id = id", line.ID).
		OrderBy("position")
	return getStationsWithSelect(node, s)
}

// Update adds or updates the line
func (line *Line) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("mline").
		Columns("id", "name", "color", "opening").
		Values(line.ID, line.Name, line.Color, line.Opening.UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = ?, color = ?, opening = ?",
			line.Name, line.Color, line.Opening.UTC()).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddLine: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the line
func (line *Line) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("mline").
		Where(sq.Eq{"id": line.ID}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveLine: %s", err)
	}
	return tx.Commit()
}
