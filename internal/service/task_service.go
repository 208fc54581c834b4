package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmetso/tasklist/internal/model"
)

var (
	// ErrNoList means the caller has no todo list yet.
	ErrNoList = errors.New("service: user has no list")
	// ErrNotFound means the addressed task does not exist in the
	// caller's list.
	ErrNotFound = errors.New("service: task not found")
	// ErrInvalidTransition means a completion-state precondition was
	// violated, e.g. marking an already finished task done.
	ErrInvalidTransition = errors.New("service: invalid state transition")
)

// ListResolver is the slice of the list repository the task service
// needs.
type ListResolver interface {
	Lookup(ctx context.Context, username string) (uint, error)
	ResolveOrCreate(ctx context.Context, username string) (uint, error)
}

// TaskService scopes task operations to the caller's own list and owns
// the completion state machine.
type TaskService struct {
	tasks TaskStore
	lists ListResolver
}

func NewTaskService(tasks TaskStore, lists ListResolver) *TaskService {
	return &TaskService{tasks: tasks, lists: lists}
}

// CreateList resolves the caller's list, creating it on first use.
func (s *TaskService) CreateList(ctx context.Context, username string) (uint, error) {
	id, err := s.lists.ResolveOrCreate(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoList
		}
		return 0, err
	}
	return id, nil
}

func (s *TaskService) List(ctx context.Context, username string) ([]*model.Task, error) {
	listID, err := s.listID(ctx, username)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Add(ctx context.Context, username string, task *model.Task) (uint, error) {
	listID, err := s.listID(ctx, username)
	if err != nil {
		return 0, err
	}
	if task.ParentID == 0 {
		task.ParentID = model.NoParent
	}
	id, err := s.tasks.Create(ctx, listID, task)
	if err != nil {
		return 0, fmt.Errorf("add task: %w", err)
	}
	return id, nil
}

// Update replaces all mutable fields of the addressed task.
func (s *TaskService) Update(ctx context.Context, username string, id uint, task *model.Task) error {
	listID, err := s.listID(ctx, username)
	if err != nil {
		return err
	}
	task.ID = id
	if task.ParentID == 0 {
		task.ParentID = model.NoParent
	}
	if err := s.tasks.Update(ctx, listID, task); err != nil {
		return s.translate(err)
	}
	return nil
}

func (s *TaskService) Delete(ctx context.Context, username string, id uint) error {
	listID, err := s.listID(ctx, username)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, listID, id); err != nil {
		return s.translate(err)
	}
	return nil
}

// MarkDone finishes a task. A non-repeating task flips to done; a
// repeating task stays active and its due date advances by one full
// recurrence interval. Advancing also clears the notification marker so
// the new period starts with a fresh suppression window.
func (s *TaskService) MarkDone(ctx context.Context, username string, id uint) (*model.Task, error) {
	listID, task, err := s.find(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if task.Done {
		return nil, fmt.Errorf("%w: task %d is already done", ErrInvalidTransition, id)
	}

	if task.IsRepeating() && task.DueDate != nil {
		next := task.Repeat.Advance(*task.DueDate)
		task.DueDate = &next
		task.LastNotification = nil
	} else {
		task.Done = true
	}

	if err := s.tasks.Update(ctx, listID, task); err != nil {
		return nil, s.translate(err)
	}
	return task, nil
}

// Activate reopens a finished task. The due date is left untouched.
func (s *TaskService) Activate(ctx context.Context, username string, id uint) (*model.Task, error) {
	listID, task, err := s.find(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if !task.Done {
		return nil, fmt.Errorf("%w: task %d is not done", ErrInvalidTransition, id)
	}

	task.Done = false
	if err := s.tasks.Update(ctx, listID, task); err != nil {
		return nil, s.translate(err)
	}
	return task, nil
}

// Deactivate pauses a recurring series: the task is marked done without
// advancing its due date. Only an active, scheduled, repeating task can
// be paused.
func (s *TaskService) Deactivate(ctx context.Context, username string, id uint) (*model.Task, error) {
	listID, task, err := s.find(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if task.Done || !task.Scheduled || !task.IsRepeating() {
		return nil, fmt.Errorf("%w: task %d is not an active repeating task", ErrInvalidTransition, id)
	}

	task.Done = true
	if err := s.tasks.Update(ctx, listID, task); err != nil {
		return nil, s.translate(err)
	}
	return task, nil
}

func (s *TaskService) listID(ctx context.Context, username string) (uint, error) {
	listID, err := s.lists.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoList
		}
		return 0, fmt.Errorf("lookup list: %w", err)
	}
	return listID, nil
}

func (s *TaskService) find(ctx context.Context, username string, id uint) (uint, *model.Task, error) {
	listID, err := s.listID(ctx, username)
	if err != nil {
		return 0, nil, err
	}
	task, err := s.tasks.Find(ctx, listID, id)
	if err != nil {
		return 0, nil, s.translate(err)
	}
	return listID, task, nil
}

func (s *TaskService) translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
