package model

import "time"

// NoParent marks a task that sits at the top level of its list.
const NoParent = -1

// Task represents a single item on a user's todo list. A task may nest
// one level under a parent task, carry a due date with optional time
// and fixed UTC offset, and repeat on a Recurrence.
type Task struct {
	ID               uint        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ListID           uint        `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ParentID         int         `gorm:"index" json:"parentId"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Done             bool        `gorm:"default:false" json:"done"`
	Scheduled        bool        `gorm:"default:false" json:"scheduled"`
	DueDate          *Date       `gorm:"type:text" json:"dueDate"`
	DueTime          *TimeOfDay  `gorm:"type:text" json:"dueTime"`
	DueTimezone      *UTCOffset  `gorm:"type:text" json:"dueTimezone"`
	Repeat           *Recurrence `gorm:"type:text" json:"repeat"`
	LastNotification *time.Time  `json:"lastNotification"`
	CreatedAt        time.Time   `json:"-"`
	UpdatedAt        time.Time   `json:"-"`

	// Children is assembled from ParentID links when a list is loaded;
	// it is never persisted directly.
	Children []*Task `gorm:"-" json:"children,omitempty"`
}

// IsRepeating reports whether the task advances instead of closing when
// marked done.
func (t *Task) IsRepeating() bool {
	return t.Repeat != nil && t.Repeat.IsRepeating()
}
