package service

import (
	"time"

	"github.com/jmetso/tasklist/internal/model"
)

// Classification is the urgency bucket of a task at a given instant.
type Classification int

const (
	NotDue Classification = iota
	DueWithinSevenDays
	DueTomorrow
	DueToday
	Overdue
)

func (c Classification) String() string {
	switch c {
	case Overdue:
		return "overdue"
	case DueToday:
		return "due today"
	case DueTomorrow:
		return "due tomorrow"
	case DueWithinSevenDays:
		return "due within seven days"
	default:
		return "not due"
	}
}

// Classify buckets a task relative to now. Unscheduled or undated tasks
// are never due. The task's fixed UTC offset, when set, replaces the
// offset of now, so "today" means today on the task's own wall clock.
//
// Day buckets use a real calendar-day count between the adjusted date
// and the due date, which stays monotonic across month and year
// boundaries. Buckets overlap by construction; precedence is
// Overdue > DueToday > DueTomorrow > DueWithinSevenDays.
func Classify(now time.Time, task *model.Task) Classification {
	if !task.Scheduled || task.DueDate == nil {
		return NotDue
	}

	zone := now.Location()
	if task.DueTimezone != nil {
		zone = task.DueTimezone.Location()
	}
	// Same instant, read on the task's wall clock.
	adjusted := now.In(zone)
	due := *task.DueDate

	if isOverdue(adjusted, task, due, zone) {
		return Overdue
	}

	switch days := model.DateOf(adjusted).DaysUntil(due); {
	case days == 0:
		return DueToday
	case days == 1:
		return DueTomorrow
	case days >= 0 && days <= 7:
		return DueWithinSevenDays
	}
	return NotDue
}

// isOverdue compares full date-times. A task without a due time borrows
// the current time of day, so it turns overdue only once its due date
// is fully in the past.
func isOverdue(adjusted time.Time, task *model.Task, due model.Date, zone *time.Location) bool {
	clock := task.DueTime
	if clock == nil {
		c := model.TimeOfDayOf(adjusted)
		clock = &c
	}
	dueAt := time.Date(due.Year, due.Month, due.Day, clock.Hour, clock.Minute, clock.Second, 0, zone)
	return adjusted.After(dueAt)
}
