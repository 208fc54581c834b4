package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UTCOffset is a fixed offset from UTC, serialized as "Z" or "±hh:mm".
// Tasks carry one instead of a full timezone name; the service never
// consults the tz database.
type UTCOffset struct {
	Seconds int
}

func ParseUTCOffset(s string) (UTCOffset, error) {
	t, err := time.Parse("Z07:00", s)
	if err != nil {
		return UTCOffset{}, fmt.Errorf("model: parse UTC offset %q: %w", s, err)
	}
	_, seconds := t.Zone()
	return UTCOffset{Seconds: seconds}, nil
}

func (o UTCOffset) String() string {
	if o.Seconds == 0 {
		return "Z"
	}
	sign := "+"
	secs := o.Seconds
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d", sign, secs/3600, (secs%3600)/60)
}

// Location returns a fixed location suitable for time.Time arithmetic.
func (o UTCOffset) Location() *time.Location {
	if o.Seconds == 0 {
		return time.UTC
	}
	return time.FixedZone(o.String(), o.Seconds)
}

func (o UTCOffset) Value() (driver.Value, error) {
	return o.String(), nil
}

func (o *UTCOffset) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseUTCOffset(v)
		if err != nil {
			return err
		}
		*o = parsed
		return nil
	case []byte:
		return o.Scan(string(v))
	default:
		return fmt.Errorf("model: cannot scan %T into UTCOffset", src)
	}
}

func (o UTCOffset) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *UTCOffset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUTCOffset(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
