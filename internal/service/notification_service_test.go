package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmetso/tasklist/internal/model"
)

func TestShouldNotifyDailyWindow(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)

	for _, due := range []*model.Date{
		date(2020, time.March, 22), // overdue
		date(2020, time.March, 23), // today
		date(2020, time.March, 24), // tomorrow
	} {
		task := scheduledTask(due)
		if _, fire := ShouldNotify(now, task); !fire {
			t.Fatalf("task due %s: expected first notification to fire", due)
		}

		sent := now
		task.LastNotification = &sent
		if _, fire := ShouldNotify(now, task); fire {
			t.Fatalf("task due %s: second notification on the same day must be suppressed", due)
		}

		yesterday := now.AddDate(0, 0, -1)
		task.LastNotification = &yesterday
		if _, fire := ShouldNotify(now, task); !fire {
			t.Fatalf("task due %s: notification from yesterday must not suppress today", due)
		}
	}
}

func TestShouldNotifyWeeklyWindow(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)
	task := scheduledTask(date(2020, time.March, 30)) // seven days out

	c, fire := ShouldNotify(now, task)
	if c != DueWithinSevenDays || !fire {
		t.Fatalf("first check = (%s, %v), want (due within seven days, true)", c, fire)
	}

	threeDaysAgo := now.AddDate(0, 0, -3)
	task.LastNotification = &threeDaysAgo
	if _, fire := ShouldNotify(now, task); fire {
		t.Fatal("notification from three days ago must suppress the weekly bucket")
	}

	eightDaysAgo := now.AddDate(0, 0, -8)
	task.LastNotification = &eightDaysAgo
	if _, fire := ShouldNotify(now, task); !fire {
		t.Fatal("notification older than a week must not suppress")
	}
}

func TestShouldNotifyNotDue(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)
	if c, fire := ShouldNotify(now, &model.Task{Title: "t"}); c != NotDue || fire {
		t.Fatalf("unscheduled task = (%s, %v), want (not due, false)", c, fire)
	}
}

func TestMessageTemplates(t *testing.T) {
	task := &model.Task{Title: "Pay rent"}

	cases := []struct {
		c       Classification
		subject string
	}{
		{Overdue, "Task Pay rent is overdue!"},
		{DueToday, "Task Pay rent is due today!"},
		{DueTomorrow, "Task Pay rent is due tomorrow!"},
		{DueWithinSevenDays, "Task Pay rent is due in next 7 days"},
	}
	for _, tc := range cases {
		subject, body := Message(tc.c, task)
		if subject != tc.subject {
			t.Fatalf("%s subject = %q, want %q", tc.c, subject, tc.subject)
		}
		if body != subject {
			t.Fatalf("%s body without description = %q, want the subject", tc.c, body)
		}
	}

	task.Description = "Transfer before noon"
	_, body := Message(DueToday, task)
	if body != "Task Pay rent is due today!\n\nTransfer before noon" {
		t.Fatalf("body with description = %q", body)
	}
}

func sweepFixture(tasks ...*model.Task) (*NotificationService, *memStore, *recordingNotifier) {
	store := newMemStore()
	for _, task := range tasks {
		store.put(1, task)
	}
	lists := newMemLists()
	lists.byUser["janne"] = 1
	users := &memUsers{users: []model.UserAccount{
		{ID: 1, Username: "janne", Email: "janne@example.net"},
	}}
	notifier := &recordingNotifier{}
	svc := NewNotificationService(users, lists, store, notifier)
	return svc, store, notifier
}

func TestSweepSendsAndRecordsNotification(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)
	task := scheduledTask(date(2020, time.March, 23))
	task.ID = 1
	task.Title = "Water plants"

	svc, store, notifier := sweepFixture(task)
	svc.WithClock(func() time.Time { return now })

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(notifier.sent))
	}
	got := notifier.sent[0]
	if got.subject != "Task Water plants is due today!" || got.user != "janne" {
		t.Fatalf("unexpected notification: %+v", got)
	}

	stored := store.tasks[1][1]
	if stored.LastNotification == nil || !stored.LastNotification.Equal(now) {
		t.Fatalf("last notification not recorded: %v", stored.LastNotification)
	}

	// Second sweep at the same instant: suppressed.
	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("second sweep sent again: %d notifications", len(notifier.sent))
	}
}

func TestSweepOverdueTakesPriority(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)
	task := scheduledTask(date(2020, time.March, 22))
	task.ID = 1
	task.Title = "File report"

	svc, _, notifier := sweepFixture(task)
	svc.WithClock(func() time.Time { return now })

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[0].subject, "overdue") {
		t.Fatalf("unexpected subject: %q", notifier.sent[0].subject)
	}
}

func TestSweepSkipsDoneUnscheduledAndSuppressed(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)

	done := scheduledTask(date(2020, time.March, 23))
	done.ID = 1
	done.Done = true

	unscheduled := &model.Task{ID: 2, Title: "someday", DueDate: date(2020, time.March, 23)}

	recent := scheduledTask(date(2020, time.March, 30))
	recent.ID = 3
	threeDaysAgo := now.AddDate(0, 0, -3)
	recent.LastNotification = &threeDaysAgo

	svc, _, notifier := sweepFixture(done, unscheduled, recent)
	svc.WithClock(func() time.Time { return now })

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent %d notifications, want 0: %+v", len(notifier.sent), notifier.sent)
	}
}

func TestSweepSkipsUsersWithoutEmail(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)
	task := scheduledTask(date(2020, time.March, 23))
	task.ID = 1

	svc, _, notifier := sweepFixture(task)
	svc.WithClock(func() time.Time { return now })
	svc.users = &memUsers{users: []model.UserAccount{{ID: 1, Username: "janne"}}}

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent %d notifications for a user without email", len(notifier.sent))
	}
}

func TestSweepIsolatesDeliveryFailure(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)
	task := scheduledTask(date(2020, time.March, 23))
	task.ID = 1

	svc, store, notifier := sweepFixture(task)
	svc.WithClock(func() time.Time { return now })
	notifier.fail = errors.New("smtp: connection refused")

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep must not fail on delivery errors: %v", err)
	}
	if store.tasks[1][1].LastNotification != nil {
		t.Fatal("failed delivery must not record a notification marker")
	}

	// Transport recovers: the next sweep delivers.
	notifier.fail = nil
	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("recovered sweep failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d notifications after recovery, want 1", len(notifier.sent))
	}
}

func TestSweepNotifiesNestedTasks(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)

	parent := &model.Task{ID: 1, Title: "Move out", ParentID: model.NoParent}
	child := scheduledTask(date(2020, time.March, 23))
	child.ID = 2
	child.ParentID = 1
	child.Title = "Cancel electricity"

	svc, _, notifier := sweepFixture(parent, child)
	svc.WithClock(func() time.Time { return now })

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0].subject, "Cancel electricity") {
		t.Fatalf("unexpected notifications: %+v", notifier.sent)
	}
}

func TestSweepToleratesMarkerPersistenceFailure(t *testing.T) {
	now := time.Date(2020, time.March, 23, 12, 0, 0, 0, time.UTC)
	task := scheduledTask(date(2020, time.March, 23))
	task.ID = 1

	svc, store, notifier := sweepFixture(task)
	svc.WithClock(func() time.Time { return now })
	store.failUpdate = errors.New("disk full")

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(notifier.sent))
	}
	if store.tasks[1][1].LastNotification != nil {
		t.Fatal("marker must stay unset when the update fails")
	}

	// Storage recovers: the next sweep re-evaluates and records the marker.
	store.failUpdate = nil
	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("recovered sweep failed: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("sent %d notifications after recovery, want 2", len(notifier.sent))
	}
	if store.tasks[1][1].LastNotification == nil {
		t.Fatal("marker was not recorded after recovery")
	}
}
