package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmetso/tasklist/internal/model"
)

// Notifier delivers a composed notification to a user. Implementations
// live in internal/notify; tests swap in a recording fake.
type Notifier interface {
	Send(ctx context.Context, subject, body string, user model.UserAccount) error
}

// UserSource, ListSource and TaskStore are the slices of the repository
// layer the notification sweep needs.
type UserSource interface {
	ListAll(ctx context.Context) ([]model.UserAccount, error)
}

type ListSource interface {
	Lookup(ctx context.Context, username string) (uint, error)
}

type TaskStore interface {
	ListByList(ctx context.Context, listID uint) ([]*model.Task, error)
	Find(ctx context.Context, listID, id uint) (*model.Task, error)
	Create(ctx context.Context, listID uint, task *model.Task) (uint, error)
	Update(ctx context.Context, listID uint, task *model.Task) error
	Delete(ctx context.Context, listID, id uint) error
}

// ShouldNotify applies the suppression policy on top of Classify: at
// most one notification per calendar day for the overdue/today/tomorrow
// buckets, at most one per rolling week for the seven-day bucket.
func ShouldNotify(now time.Time, task *model.Task) (Classification, bool) {
	c := Classify(now, task)
	if c == NotDue {
		return c, false
	}
	last := task.LastNotification
	if last == nil {
		return c, true
	}
	if c == DueWithinSevenDays {
		return c, now.Sub(*last) > 7*24*time.Hour
	}
	return c, !sameCalendarDay(now, *last)
}

// sameCalendarDay compares dates with the second instant read in the
// first one's zone.
func sameCalendarDay(a, b time.Time) bool {
	return model.DateOf(a) == model.DateOf(b.In(a.Location()))
}

// Message renders the subject and body for a classification. The body
// repeats the subject, with the task description appended after a blank
// line when present.
func Message(c Classification, task *model.Task) (subject, body string) {
	switch c {
	case Overdue:
		subject = fmt.Sprintf("Task %s is overdue!", task.Title)
	case DueToday:
		subject = fmt.Sprintf("Task %s is due today!", task.Title)
	case DueTomorrow:
		subject = fmt.Sprintf("Task %s is due tomorrow!", task.Title)
	case DueWithinSevenDays:
		subject = fmt.Sprintf("Task %s is due in next 7 days", task.Title)
	default:
		return "", ""
	}
	body = subject
	if task.Description != "" {
		body += "\n\n" + task.Description
	}
	return subject, body
}

// NotificationService runs the periodic sweep that emails users about
// due tasks.
type NotificationService struct {
	users    UserSource
	lists    ListSource
	tasks    TaskStore
	notifier Notifier
	now      func() time.Time
}

func NewNotificationService(users UserSource, lists ListSource, tasks TaskStore, notifier Notifier) *NotificationService {
	return &NotificationService{
		users:    users,
		lists:    lists,
		tasks:    tasks,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Tests use it to pin "now".
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// Sweep walks every user with an email address and notifies them about
// scheduled, unfinished tasks that are due. Failures are isolated per
// task: a send or persistence error is logged and the sweep moves on.
func (s *NotificationService) Sweep(ctx context.Context) error {
	now := s.now()

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if user.Email == "" {
			continue
		}
		if err := s.sweepUser(ctx, user, now); err != nil {
			log.Printf("notification sweep for %s: %v", user.Username, err)
		}
	}
	return nil
}

func (s *NotificationService) sweepUser(ctx context.Context, user model.UserAccount, now time.Time) error {
	listID, err := s.lists.Lookup(ctx, user.Username)
	if err != nil {
		// No list yet means nothing to notify about.
		return nil
	}

	tasks, err := s.tasks.ListByList(ctx, listID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	for _, task := range flatten(tasks) {
		if !task.Scheduled || task.Done {
			continue
		}
		c, fire := ShouldNotify(now, task)
		if !fire {
			continue
		}

		subject, body := Message(c, task)
		if err := s.notifier.Send(ctx, subject, body, user); err != nil {
			log.Printf("notify %s about task %d: %v", user.Username, task.ID, err)
			continue
		}

		sent := now
		task.LastNotification = &sent
		if err := s.tasks.Update(ctx, listID, task); err != nil {
			// Skip the marker update; the next sweep re-evaluates.
			log.Printf("record notification for task %d: %v", task.ID, err)
		}
	}
	return nil
}

// flatten returns parents and their one level of children as a single
// slice.
func flatten(tasks []*model.Task) []*model.Task {
	out := make([]*model.Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task)
		out = append(out, task.Children...)
	}
	return out
}
