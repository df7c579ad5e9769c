package types

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// HourBucket maps an hour of the day to a human-friendly time-of-day label
// ("Late night", "Morning", ...)
type HourBucket struct {
	Hour  int
	Label string
}

// GetHourBuckets returns a slice with all registered hour buckets
func GetHourBuckets(node sqalx.Node) ([]*HourBucket, error) {
	return getHourBucketsWithSelect(node, sdb.Select())
}

func getHourBucketsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*HourBucket, error) {
	buckets := []*HourBucket{}

	tx, err := node.Beginx()
	if err != nil {
		return buckets, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("hour", "label").
		From("hour_bucket").
		OrderBy("hour ASC").
		RunWith(tx).Query()
	if err != nil {
		return buckets, fmt.Errorf("getHourBucketsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bucket HourBucket
		err := rows.Scan(
			&bucket.Hour,
			&bucket.Label)
		if err != nil {
			return buckets, fmt.Errorf("getHourBucketsWithSelect: %s", err)
		}
		buckets = append(buckets, &bucket)
	}
	if err := rows.Err(); err != nil {
		return buckets, fmt.Errorf("getHourBucketsWithSelect: %s", err)
	}
	return buckets, nil
}

// GetHourBucket returns the HourBucket for the given hour
func GetHourBucket(node sqalx.Node, hour int) (*HourBucket, error) {
	s := sdb.Select().
		Where(sq.Eq{"hour": hour})
	buckets, err := getHourBucketsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return nil, errors.New("HourBucket not found")
	}
	return buckets[0], nil
}

// Update adds or updates the hour bucket
func (bucket *HourBucket) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("hour_bucket").
		Columns("hour", "label").
		Values(bucket.Hour, bucket.Label).
		Suffix("ON CONFLICT (hour) DO UPDATE SET label = ?", bucket.Label).
		RunWith(tx).Exec()
	if err != nil {
		return errors.New("AddHourBucket: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the hour bucket
func (bucket *HourBucket) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("hour_bucket").
		Where(sq.Eq{"hour": bucket.Hour}).RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveHourBucket: %s", err)
	}
	return tx.Commit()
}
