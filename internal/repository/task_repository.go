package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/filter"
	"taskboard/internal/model"
)

// TaskStore persists the full task list after every mutation.
type TaskStore interface {
	SaveTasks(tasks []model.Task) error
}

// TaskRepository owns the in-memory task collection and writes it through
// to the store on every mutation. When a write fails the in-memory change
// is rolled back, so memory never diverges from the last successful persist.
type TaskRepository struct {
	mu    sync.Mutex
	store TaskStore
	tasks []model.Task
}

// NewTaskRepository wraps the snapshot loaded at startup.
func NewTaskRepository(store TaskStore, tasks []model.Task) *TaskRepository {
	return &TaskRepository{store: store, tasks: tasks}
}

// Draft carries user-supplied fields for a new task. No field is required;
// an empty title is accepted as-is.
type Draft struct {
	Title       string
	Description string
	Category    string
	Priority    model.Priority
	DueDate     *time.Time
	Recurrence  string
	Attachments []model.Attachment
	Status      model.Status
}

// Patch carries fields for Update. Nil pointers leave the field alone.
// Status, order, id, creation time and attachments are not patchable.
type Patch struct {
	Title        *string
	Description  *string
	Category     *string
	Priority     *model.Priority
	DueDate      *time.Time
	ClearDueDate bool
	Recurrence   *string
}

// Create appends a task at the end of its column and persists.
func (r *TaskRepository) Create(draft Draft) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := draft.Status
	if !status.Valid() {
		status = model.StatusTodo
	}
	priority := draft.Priority
	if !priority.Valid() {
		priority = model.PriorityLow
	}

	task := model.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Priority:    priority,
		DueDate:     draft.DueDate,
		Recurrence:  draft.Recurrence,
		Attachments: draft.Attachments,
		Status:      status,
		CreatedAt:   time.Now(),
		OrderIndex:  r.nextOrderIndex(status),
	}

	r.tasks = append(r.tasks, task)
	if err := r.persist(); err != nil {
		r.tasks = r.tasks[:len(r.tasks)-1]
		return model.Task{}, err
	}
	return task, nil
}

// Update merges the patch into an existing task and persists.
func (r *TaskRepository) Update(id string, patch Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, ErrNotFound
	}

	prev := r.tasks[i]
	task := &r.tasks[i]
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Category != nil {
		task.Category = *patch.Category
	}
	if patch.Priority != nil && patch.Priority.Valid() {
		task.Priority = *patch.Priority
	}
	if patch.ClearDueDate {
		task.DueDate = nil
	} else if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Recurrence != nil {
		task.Recurrence = *patch.Recurrence
	}

	if err := r.persist(); err != nil {
		r.tasks[i] = prev
		return model.Task{}, err
	}
	return r.tasks[i], nil
}

// Delete removes a task and persists.
func (r *TaskRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	removed := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	if err := r.persist(); err != nil {
		r.tasks = append(r.tasks[:i], append([]model.Task{removed}, r.tasks[i:]...)...)
		return err
	}
	return nil
}

// SetStatus moves a task to another column without touching any order
// index; order is only rewritten when an explicit reorder is committed.
func (r *TaskRepository) SetStatus(id string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	prev := r.tasks[i].Status
	r.tasks[i].Status = status
	if err := r.persist(); err != nil {
		r.tasks[i].Status = prev
		return err
	}
	return nil
}

// ReorderColumn commits the display order of one column: each listed id
// gets its position in the list as its order index. Ids that are unknown
// or belong to another column are ignored. Other columns are untouched.
func (r *TaskRepository) ReorderColumn(status model.Status, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := make([]model.Task, len(r.tasks))
	copy(prev, r.tasks)

	for pos, id := range ids {
		i := r.indexOf(id)
		if i < 0 || r.tasks[i].Status != status {
			continue
		}
		r.tasks[i].OrderIndex = pos
	}

	if err := r.persist(); err != nil {
		r.tasks = prev
		return err
	}
	return nil
}

// ReassignCategory moves every task in the named category to the
// uncategorized sentinel, persisting only when something changed.
// Returns the number of tasks reassigned.
func (r *TaskRepository) ReassignCategory(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed []int
	for i := range r.tasks {
		if r.tasks[i].Category == name {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	for _, i := range changed {
		r.tasks[i].Category = model.Uncategorized
	}
	if err := r.persist(); err != nil {
		for _, i := range changed {
			r.tasks[i].Category = name
		}
		return 0, err
	}
	return len(changed), nil
}

// Find returns the task with the given id.
func (r *TaskRepository) Find(id string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, ErrNotFound
	}
	return r.tasks[i], nil
}

// ListByStatus returns a column's tasks sorted by order index, ties broken
// by insertion order.
func (r *TaskRepository) ListByStatus(status model.Status) []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listByStatusLocked(status)
}

func (r *TaskRepository) listByStatusLocked(status model.Status) []model.Task {
	var out []model.Task
	for _, task := range r.tasks {
		if task.Status == status {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// Query returns tasks matching the criteria, in board order (column by
// column, each sorted by order index).
func (r *TaskRepository) Query(c filter.Criteria) []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var out []model.Task
	for _, status := range model.Statuses {
		for _, task := range r.listByStatusLocked(status) {
			if filter.Matches(task, c, now) {
				out = append(out, task)
			}
		}
	}
	return out
}

// All returns a copy of the whole collection in insertion order.
func (r *TaskRepository) All() []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

func (r *TaskRepository) indexOf(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *TaskRepository) nextOrderIndex(status model.Status) int {
	next := 0
	for _, task := range r.tasks {
		if task.Status == status && task.OrderIndex+1 > next {
			next = task.OrderIndex + 1
		}
	}
	return next
}

func (r *TaskRepository) persist() error {
	snapshot := make([]model.Task, len(r.tasks))
	copy(snapshot, r.tasks)
	if err := r.store.SaveTasks(snapshot); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}
