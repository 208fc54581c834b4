package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/jmetso/tasklist/internal/model"
)

// TaskRepository handles CRUD for tasks. Task IDs are unique per list
// and assigned monotonically after the current maximum.
type TaskRepository struct {
	db *gorm.DB
	// mu serializes ID assignment for concurrent adds to the same list.
	mu sync.Mutex
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts the task into the given list and returns the assigned ID.
func (r *TaskRepository) Create(ctx context.Context, listID uint, task *model.Task) (uint, error) {
	db := r.db.WithContext(ctx)

	var list model.TodoList
	if err := db.First(&list, "id = ?", listID).Error; err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID uint
	if err := db.Model(&model.Task{}).Where("list_id = ?", listID).
		Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, fmt.Errorf("next task id: %w", err)
	}

	task.ID = maxID + 1
	task.ListID = listID
	if err := db.Create(task).Error; err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	return task.ID, nil
}

// ListByList loads all tasks of a list and nests each task whose
// ParentID matches another task's ID under that task, one level deep.
// The returned top-level slice is sorted by due date, dated tasks first.
func (r *TaskRepository) ListByList(ctx context.Context, listID uint) ([]*model.Task, error) {
	var flat []*model.Task
	if err := r.db.WithContext(ctx).Where("list_id = ?", listID).Find(&flat).Error; err != nil {
		return nil, err
	}

	// Two passes: index by ID, then attach children to their parents.
	byID := make(map[uint]*model.Task, len(flat))
	for _, task := range flat {
		byID[task.ID] = task
	}

	roots := make([]*model.Task, 0, len(flat))
	for _, task := range flat {
		if task.ParentID > 0 {
			if parent, ok := byID[uint(task.ParentID)]; ok {
				parent.Children = append(parent.Children, task)
				continue
			}
		}
		roots = append(roots, task)
	}

	sortByDueDate(roots)
	for _, task := range roots {
		sortByDueDate(task.Children)
	}
	return roots, nil
}

// sortByDueDate orders dated tasks first, earliest due date first, with
// due time as a tie breaker. Undated tasks keep their relative order at
// the end.
func sortByDueDate(tasks []*model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return false
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		}
		if days := a.DueDate.DaysUntil(*b.DueDate); days != 0 {
			return days > 0
		}
		switch {
		case a.DueTime == nil:
			return false
		case b.DueTime == nil:
			return true
		}
		at, bt := *a.DueTime, *b.DueTime
		return at.Hour*3600+at.Minute*60+at.Second < bt.Hour*3600+bt.Minute*60+bt.Second
	})
}

func (r *TaskRepository) Find(ctx context.Context, listID, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("list_id = ? AND id = ?", listID, id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update replaces all mutable fields of an existing task.
func (r *TaskRepository) Update(ctx context.Context, listID uint, task *model.Task) error {
	db := r.db.WithContext(ctx)

	var existing model.Task
	if err := db.Where("list_id = ? AND id = ?", listID, task.ID).First(&existing).Error; err != nil {
		return err
	}

	task.ListID = listID
	task.CreatedAt = existing.CreatedAt
	if err := db.Save(task).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task. Children of a deleted parent stay in the list
// and surface at the top level on the next load.
func (r *TaskRepository) Delete(ctx context.Context, listID, id uint) error {
	result := r.db.WithContext(ctx).Where("list_id = ? AND id = ?", listID, id).Delete(&model.Task{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
