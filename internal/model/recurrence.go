package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RecurrencePeriod is the calendar unit a recurring task repeats in.
type RecurrencePeriod string

const (
	PeriodNone   RecurrencePeriod = "None"
	PeriodDays   RecurrencePeriod = "Days"
	PeriodWeeks  RecurrencePeriod = "Weeks"
	PeriodMonths RecurrencePeriod = "Months"
	PeriodYears  RecurrencePeriod = "Years"
)

var ErrInvalidRecurrence = errors.New("model: invalid recurrence")

// Recurrence describes how often a task repeats: either not at all, or
// every Times units of Period. The compact textual form is what the
// database stores ("No", "Every 2 Weeks").
type Recurrence struct {
	Times  int              `json:"times"`
	Period RecurrencePeriod `json:"period"`
}

// ParseRecurrence accepts the named shortcuts (Daily, Weekly, Biweekly,
// Monthly, Yearly, No) and the generic "Every N Unit" form,
// case-insensitively. The shortcuts normalize to their generic
// equivalents, so String() of a parsed value is always "No" or
// "Every N Unit".
func ParseRecurrence(text string) (Recurrence, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "no":
		return Recurrence{Period: PeriodNone}, nil
	case "daily":
		return Recurrence{Times: 1, Period: PeriodDays}, nil
	case "weekly":
		return Recurrence{Times: 1, Period: PeriodWeeks}, nil
	case "biweekly":
		return Recurrence{Times: 2, Period: PeriodWeeks}, nil
	case "monthly":
		return Recurrence{Times: 1, Period: PeriodMonths}, nil
	case "yearly":
		return Recurrence{Times: 1, Period: PeriodYears}, nil
	}

	fields := strings.Fields(text)
	if len(fields) != 3 || !strings.EqualFold(fields[0], "every") {
		return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, text)
	}
	times, err := strconv.Atoi(fields[1])
	if err != nil || times <= 0 {
		return Recurrence{}, fmt.Errorf("%w: bad count in %q", ErrInvalidRecurrence, text)
	}
	period, err := parsePeriod(fields[2])
	if err != nil || period == PeriodNone {
		return Recurrence{}, fmt.Errorf("%w: bad unit in %q", ErrInvalidRecurrence, text)
	}
	return Recurrence{Times: times, Period: period}, nil
}

func parsePeriod(text string) (RecurrencePeriod, error) {
	for _, p := range []RecurrencePeriod{PeriodNone, PeriodDays, PeriodWeeks, PeriodMonths, PeriodYears} {
		if strings.EqualFold(text, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown period %q", ErrInvalidRecurrence, text)
}

// IsRepeating reports whether the recurrence actually repeats. The zero
// value and PeriodNone both mean "no repeat".
func (r Recurrence) IsRepeating() bool {
	switch r.Period {
	case PeriodDays, PeriodWeeks, PeriodMonths, PeriodYears:
		return r.Times > 0
	}
	return false
}

func (r Recurrence) String() string {
	if !r.IsRepeating() {
		return "No"
	}
	return fmt.Sprintf("Every %d %s", r.Times, r.Period)
}

// Advance moves a due date forward by one full recurrence interval.
// Month and year steps clamp to the end of the target month, so a
// monthly task due Nov 30 lands on Dec 30 and one due Jan 31 lands on
// Feb 28 rather than spilling into March.
func (r Recurrence) Advance(d Date) Date {
	switch r.Period {
	case PeriodDays:
		return d.AddDays(r.Times)
	case PeriodWeeks:
		return d.AddDays(7 * r.Times)
	case PeriodMonths:
		return d.AddMonths(r.Times)
	case PeriodYears:
		return d.AddMonths(12 * r.Times)
	}
	return d
}

// Value stores the compact textual form in a plain text column.
func (r Recurrence) Value() (driver.Value, error) {
	return r.String(), nil
}

func (r *Recurrence) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = Recurrence{Period: PeriodNone}
		return nil
	case string:
		parsed, err := ParseRecurrence(v)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	case []byte:
		return r.Scan(string(v))
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidRecurrence, src)
	}
}

// UnmarshalJSON accepts both the wire object form {"times":2,"period":"Weeks"}
// and the compact string form "Biweekly".
func (r *Recurrence) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseRecurrence(s)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}

	type plain Recurrence
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	period, err := parsePeriod(string(p.Period))
	if err != nil {
		return err
	}
	if period != PeriodNone && p.Times <= 0 {
		return fmt.Errorf("%w: bad count %d", ErrInvalidRecurrence, p.Times)
	}
	*r = Recurrence{Times: p.Times, Period: period}
	return nil
}
