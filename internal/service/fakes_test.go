package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/jmetso/tasklist/internal/model"
)

// memStore is an in-memory TaskStore mirroring the repository contract,
// including gorm.ErrRecordNotFound for missing rows.
type memStore struct {
	tasks      map[uint]map[uint]*model.Task // listID -> id -> task
	updates    int
	failUpdate error
}

func newMemStore() *memStore {
	return &memStore{tasks: map[uint]map[uint]*model.Task{}}
}

func (s *memStore) put(listID uint, task *model.Task) *model.Task {
	if s.tasks[listID] == nil {
		s.tasks[listID] = map[uint]*model.Task{}
	}
	task.ListID = listID
	s.tasks[listID][task.ID] = task
	return task
}

func (s *memStore) Create(_ context.Context, listID uint, task *model.Task) (uint, error) {
	var maxID uint
	for id := range s.tasks[listID] {
		if id > maxID {
			maxID = id
		}
	}
	task.ID = maxID + 1
	s.put(listID, task)
	return task.ID, nil
}

func (s *memStore) Find(_ context.Context, listID, id uint) (*model.Task, error) {
	task, ok := s.tasks[listID][id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

// ListByList mirrors the repository contract: children are nested under
// their parents, one level deep.
func (s *memStore) ListByList(_ context.Context, listID uint) ([]*model.Task, error) {
	flat := make([]*model.Task, 0, len(s.tasks[listID]))
	for _, task := range s.tasks[listID] {
		copied := *task
		copied.Children = nil
		flat = append(flat, &copied)
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].ID < flat[j].ID })

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
	return roots, nil
}

func (s *memStore) Update(_ context.Context, listID uint, task *model.Task) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	if _, ok := s.tasks[listID][task.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.updates++
	copied := *task
	s.tasks[listID][task.ID] = &copied
	return nil
}

func (s *memStore) Delete(_ context.Context, listID, id uint) error {
	if _, ok := s.tasks[listID][id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.tasks[listID], id)
	return nil
}

// memLists maps usernames to list IDs.
type memLists struct {
	byUser map[string]uint
	nextID uint
}

func newMemLists() *memLists {
	return &memLists{byUser: map[string]uint{}}
}

func (l *memLists) Lookup(_ context.Context, username string) (uint, error) {
	id, ok := l.byUser[username]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return id, nil
}

func (l *memLists) ResolveOrCreate(_ context.Context, username string) (uint, error) {
	if id, ok := l.byUser[username]; ok {
		return id, nil
	}
	l.nextID++
	l.byUser[username] = l.nextID
	return l.nextID, nil
}

// memUsers is a fixed account roster.
type memUsers struct {
	users []model.UserAccount
}

func (u *memUsers) ListAll(context.Context) ([]model.UserAccount, error) {
	return u.users, nil
}

type sentMessage struct {
	subject string
	body    string
	user    string
}

// recordingNotifier captures sends and can be told to fail.
type recordingNotifier struct {
	sent []sentMessage
	fail error
}

func (n *recordingNotifier) Send(_ context.Context, subject, body string, user model.UserAccount) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentMessage{subject: subject, body: body, user: user.Username})
	return nil
}
