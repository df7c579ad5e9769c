package types

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// AffectedAllOfRowLine is the affected-stations placeholder meaning "every
// station of the line the status was observed on"
const AffectedAllOfRowLine = "All"

// affectedLineWideSuffix is the suffix of line-wide placeholders such as
// "M1_All"
const affectedLineWideSuffix = "_All"

// StatusMapping translates one raw status message into its semantic meaning.
// The table is maintained by hand outside this system; every raw message ever
// observed is supposed to have exactly one row here.
type StatusMapping struct {
	Status               string
	Category             string
	Reason               string
	ClosedForMaintenance bool
	Delayed              bool
	NotRunning           bool
	SkippingStations     bool
	OneTrackOnly         bool
	TrainChanging        bool
	// AffectedStations is a comma-joined station list, a line-wide
	// placeholder ("M1_All") or the bare row-line placeholder ("All")
	AffectedStations string
	// ValidForHours is an optional "HH:MM-HH:MM" clock interval outside of
	// which the message does not describe an active condition. May wrap
	// past midnight.
	ValidForHours string
}

// GetStatusMappings returns a slice with all registered status mappings
func GetStatusMappings(node sqalx.Node) ([]*StatusMapping, error) {
	return getStatusMappingsWithSelect(node, sdb.Select())
}

func getStatusMappingsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*StatusMapping, error) {
	mappings := []*StatusMapping{}

	tx, err := node.Beginx()
	if err != nil {
		return mappings, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("status", "category", "reason",
		"closed_for_maintenance", "delayed", "not_running", "skipping_stations",
		"one_track_only", "train_changing", "affected_stations", "valid_for_hours").
		From("status_mapping").
		OrderBy("status ASC").
		RunWith(tx).Query()
	if err != nil {
		return mappings, fmt.Errorf("getStatusMappingsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mapping StatusMapping
		err := rows.Scan(
			&mapping.Status,
			&mapping.Category,
			&mapping.Reason,
			&mapping.ClosedForMaintenance,
			&mapping.Delayed,
			&mapping.NotRunning,
			&mapping.SkippingStations,
			&mapping.OneTrackOnly,
			&mapping.TrainChanging,
			&mapping.AffectedStations,
			&mapping.ValidForHours)
		if err != nil {
			return mappings, fmt.Errorf("getStatusMappingsWithSelect: %s", err)
		}
		mappings = append(mappings, &mapping)
	}
	if err := rows.Err(); err != nil {
		return mappings, fmt.Errorf("getStatusMappingsWithSelect: %s", err)
	}
	return mappings, nil
}

// GetStatusMapping returns the StatusMapping for the given raw status text
func GetStatusMapping(node sqalx.Node, status string) (*StatusMapping, error) {
	s := sdb.Select().
		Where(sq.Eq{"status": status})
	mappings, err := getStatusMappingsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, errors.New("StatusMapping not found")
	}
	return mappings[0], nil
}

// AffectedTokens splits the affected-stations descriptor into trimmed tokens.
// Placeholder tokens are returned as-is; resolution against the station list
// happens during classification.
func (mapping *StatusMapping) AffectedTokens() []string {
	tokens := []string{}
	for _, token := range strings.Split(mapping.AffectedStations, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// LineWidePlaceholderLine returns the line ID named by a line-wide
// placeholder token ("M1_All" returns "M1"), or "" if the token is not one
func LineWidePlaceholderLine(token string) string {
	if !strings.HasSuffix(token, affectedLineWideSuffix) {
		return ""
	}
	return strings.TrimSuffix(token, affectedLineWideSuffix)
}

// ValidAt returns whether the mapped meaning applies at the given time of
// day. Mappings without a validity interval always apply. An interval whose
// start is later than its end is taken to wrap past midnight.
func (mapping *StatusMapping) ValidAt(c Clock) (bool, error) {
	if mapping.ValidForHours == "" {
		return true, nil
	}
	parts := strings.SplitN(mapping.ValidForHours, "-", 2)
	if len(parts) != 2 {
		return false, fmt.Errorf("ValidAt: malformed interval %q", mapping.ValidForHours)
	}
	start, err := ParseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return false, fmt.Errorf("ValidAt: %s", err)
	}
	end, err := ParseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return false, fmt.Errorf("ValidAt: %s", err)
	}
	if start > end {
		return c >= start || c <= end, nil
	}
	return c >= start && c <= end, nil
}

// Update adds or updates the status mapping
func (mapping *StatusMapping) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("status_mapping").
		Columns("status", "category", "reason",
			"closed_for_maintenance", "delayed", "not_running", "skipping_stations",
			"one_track_only", "train_changing", "affected_stations", "valid_for_hours").
		Values(mapping.Status, mapping.Category, mapping.Reason,
			mapping.ClosedForMaintenance, mapping.Delayed, mapping.NotRunning,
			mapping.SkippingStations, mapping.OneTrackOnly, mapping.TrainChanging,
			mapping.AffectedStations, mapping.ValidForHours).
		Suffix("ON CONFLICT (status) DO UPDATE SET category = ?, reason = ?, "+
			"closed_for_maintenance = ?, delayed = ?, not_running = ?, skipping_stations = ?, "+
			"one_track_only = ?, train_changing = ?, affected_stations = ?, valid_for_hours = ?",
			mapping.Category, mapping.Reason,
			mapping.ClosedForMaintenance, mapping.Delayed, mapping.NotRunning,
			mapping.SkippingStations, mapping.OneTrackOnly, mapping.TrainChanging,
			mapping.AffectedStations, mapping.ValidForHours).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddStatusMapping: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the status mapping
func (mapping *StatusMapping) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("status_mapping").
		Where(sq.Eq{"status": mapping.Status}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveStatusMapping: %s", err)
	}
	return tx.Commit()
}
