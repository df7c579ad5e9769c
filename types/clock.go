package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// Clock is a time of day with minute precision, independent of any date
type Clock int

// ErrClockParse is returned when clock parsing fails
var ErrClockParse = errors.New(`ClockParseError: should be a string formatted as "15:04"`)

// ParseClock parses a "HH:MM" string into a Clock
func ParseClock(s string) (Clock, error) {
	var hour, minute int
	n, err := fmt.Sscanf(s, "%d:%d", &hour, &minute)
	if err != nil || n != 2 {
		return 0, ErrClockParse
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrClockParse
	}
	return Clock(hour*60 + minute), nil
}

// ClockOf returns the Clock corresponding to the time of day of t
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// Hour returns the hour component of the clock
func (c Clock) Hour() int {
	return int(c) / 60
}

// Minute returns the minute component of the clock
func (c Clock) Minute() int {
	return int(c) % 60
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Scan implements the sql.Scanner interface.
func (c *Clock) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*c = ClockOf(v)
		return nil
	case []byte:
		parsed, err := ParseClock(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case string:
		parsed, err := ParseClock(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	return errors.New("Scan: Invalid val type for scanning")
}

// Value implements the driver.Valuer interface.
func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}
