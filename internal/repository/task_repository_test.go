package repository

import (
	"errors"
	"testing"
	"time"

	"taskboard/internal/filter"
	"taskboard/internal/model"
)

type memStore struct {
	tasks      []model.Task
	categories []model.Category
	taskSaves  int
	catSaves   int
	failTasks  bool
	failCats   bool
}

func (s *memStore) SaveTasks(tasks []model.Task) error {
	if s.failTasks {
		return errors.New("disk full")
	}
	s.tasks = tasks
	s.taskSaves++
	return nil
}

func (s *memStore) SaveCategories(categories []model.Category) error {
	if s.failCats {
		return errors.New("disk full")
	}
	s.categories = categories
	s.catSaves++
	return nil
}

func newTaskRepo() (*TaskRepository, *memStore) {
	st := &memStore{}
	return NewTaskRepository(st, nil), st
}

func TestCreateAssignsNextOrderIndex(t *testing.T) {
	repo, st := newTaskRepo()

	first, err := repo.Create(Draft{Title: "first"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.OrderIndex != 0 {
		t.Errorf("first task in empty column: orderIndex = %d, want 0", first.OrderIndex)
	}
	if first.Status != model.StatusTodo {
		t.Errorf("default status = %s, want todo", first.Status)
	}
	if first.Priority != model.PriorityLow {
		t.Errorf("default priority = %s, want low", first.Priority)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Error("id and createdAt must be assigned at creation")
	}

	second, _ := repo.Create(Draft{Title: "second"})
	if second.OrderIndex != 1 {
		t.Errorf("second task: orderIndex = %d, want 1", second.OrderIndex)
	}

	// A different column starts its own numbering.
	other, _ := repo.Create(Draft{Title: "doing", Status: model.StatusInProgress})
	if other.OrderIndex != 0 {
		t.Errorf("first inProgress task: orderIndex = %d, want 0", other.OrderIndex)
	}

	if st.taskSaves != 3 {
		t.Errorf("taskSaves = %d, want one persist per create", st.taskSaves)
	}
}

func TestCreateAppendsAfterMaxOrderIndex(t *testing.T) {
	st := &memStore{}
	repo := NewTaskRepository(st, []model.Task{
		{ID: "a", Status: model.StatusTodo, OrderIndex: 4},
		{ID: "b", Status: model.StatusTodo, OrderIndex: 1},
	})

	task, err := repo.Create(Draft{Title: "new"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.OrderIndex != 5 {
		t.Errorf("orderIndex = %d, want max+1 = 5", task.OrderIndex)
	}
}

func TestReorderColumnRenumbersDense(t *testing.T) {
	repo, _ := newTaskRepo()
	a, _ := repo.Create(Draft{Title: "a"})
	b, _ := repo.Create(Draft{Title: "b"})
	c, _ := repo.Create(Draft{Title: "c"})
	other, _ := repo.Create(Draft{Title: "x", Status: model.StatusInProgress})

	if err := repo.ReorderColumn(model.StatusTodo, []string{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := repo.ListByStatus(model.StatusTodo)
	wantOrder := []string{c.ID, a.ID, b.ID}
	for i, task := range got {
		if task.ID != wantOrder[i] {
			t.Errorf("position %d: got %s, want %s", i, task.ID, wantOrder[i])
		}
		if task.OrderIndex != i {
			t.Errorf("task %s: orderIndex = %d, want %d", task.ID, task.OrderIndex, i)
		}
	}

	// The other column is untouched.
	kept, _ := repo.Find(other.ID)
	if kept.OrderIndex != 0 || kept.Status != model.StatusInProgress {
		t.Errorf("other column changed: %+v", kept)
	}
}

func TestReorderColumnIgnoresUnknownAndForeignIds(t *testing.T) {
	repo, _ := newTaskRepo()
	a, _ := repo.Create(Draft{Title: "a"})
	foreign, _ := repo.Create(Draft{Title: "x", Status: model.StatusCompleted})

	if err := repo.ReorderColumn(model.StatusTodo, []string{"ghost", foreign.ID, a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	gotA, _ := repo.Find(a.ID)
	if gotA.OrderIndex != 2 {
		t.Errorf("a.orderIndex = %d, want its position in the list (2)", gotA.OrderIndex)
	}
	gotForeign, _ := repo.Find(foreign.ID)
	if gotForeign.OrderIndex != 0 {
		t.Errorf("foreign column task was renumbered: %d", gotForeign.OrderIndex)
	}
}

func TestUpdatePatchesOnlyEditableFields(t *testing.T) {
	repo, _ := newTaskRepo()
	due := time.Now().Add(time.Hour)
	task, _ := repo.Create(Draft{
		Title:       "old",
		Attachments: []model.Attachment{{Name: "f", MIMEType: "text/plain", Payload: "data:"}},
	})

	title := "new"
	priority := model.PriorityHigh
	got, err := repo.Update(task.ID, Patch{Title: &title, Priority: &priority, DueDate: &due})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "new" || got.Priority != model.PriorityHigh || got.DueDate == nil {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.ID != task.ID || !got.CreatedAt.Equal(task.CreatedAt) || got.Status != task.Status || got.OrderIndex != task.OrderIndex {
		t.Error("update must not touch id, createdAt, status or orderIndex")
	}
	if len(got.Attachments) != 1 {
		t.Error("update must not touch attachments")
	}

	cleared, err := repo.Update(task.ID, Patch{ClearDueDate: true})
	if err != nil {
		t.Fatalf("clear due date: %v", err)
	}
	if cleared.DueDate != nil {
		t.Error("ClearDueDate should remove the due date")
	}
}

func TestMutationsOnUnknownIdReturnNotFound(t *testing.T) {
	repo, st := newTaskRepo()
	repo.Create(Draft{Title: "keep"})
	saves := st.taskSaves

	if _, err := repo.Update("ghost", Patch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: got %v, want ErrNotFound", err)
	}
	if err := repo.SetStatus("ghost", model.StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Errorf("setStatus: got %v, want ErrNotFound", err)
	}
	if st.taskSaves != saves {
		t.Error("failed lookups must not persist anything")
	}
	if len(repo.All()) != 1 {
		t.Error("existing tasks must survive unknown-id mutations")
	}
}

func TestSetStatusRejectsUnknownColumn(t *testing.T) {
	repo, _ := newTaskRepo()
	task, _ := repo.Create(Draft{Title: "t"})

	if err := repo.SetStatus(task.ID, model.Status("archived")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("got %v, want ErrInvalidStatus", err)
	}
}

func TestTaskLifecycleScenario(t *testing.T) {
	repo, _ := newTaskRepo()

	t1, err := repo.Create(Draft{Title: "T1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	todo := repo.ListByStatus(model.StatusTodo)
	if len(todo) != 1 || todo[0].ID != t1.ID || todo[0].OrderIndex != 0 {
		t.Fatalf("listByStatus(todo) = %+v, want just T1 at order 0", todo)
	}

	category := "shopping"
	updated, err := repo.Update(t1.ID, Patch{Category: &category})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != "shopping" {
		t.Errorf("category = %q, want shopping", updated.Category)
	}
	todo = repo.ListByStatus(model.StatusTodo)
	if len(todo) != 1 || todo[0].OrderIndex != 0 {
		t.Error("update must not change column membership or order")
	}

	if err := repo.SetStatus(t1.ID, model.StatusInProgress); err != nil {
		t.Fatalf("setStatus: %v", err)
	}
	if len(repo.ListByStatus(model.StatusTodo)) != 0 {
		t.Error("todo column should be empty after the move")
	}
	inProgress := repo.ListByStatus(model.StatusInProgress)
	if len(inProgress) != 1 || inProgress[0].ID != t1.ID {
		t.Error("inProgress column should contain T1")
	}

	if err := repo.Delete(t1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.ListByStatus(model.StatusTodo)) != 0 || len(repo.ListByStatus(model.StatusInProgress)) != 0 {
		t.Error("both columns should be empty after delete")
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	repo, st := newTaskRepo()
	task, _ := repo.Create(Draft{Title: "keep"})

	st.failTasks = true

	if _, err := repo.Create(Draft{Title: "doomed"}); err == nil {
		t.Fatal("create should surface the store error")
	}
	if len(repo.All()) != 1 {
		t.Error("failed create must not stay in memory")
	}

	title := "changed"
	if _, err := repo.Update(task.ID, Patch{Title: &title}); err == nil {
		t.Fatal("update should surface the store error")
	}
	if got, _ := repo.Find(task.ID); got.Title != "keep" {
		t.Errorf("title = %q, memory diverged from last persist", got.Title)
	}

	if err := repo.Delete(task.ID); err == nil {
		t.Fatal("delete should surface the store error")
	}
	if _, err := repo.Find(task.ID); err != nil {
		t.Error("failed delete must keep the task")
	}

	if err := repo.SetStatus(task.ID, model.StatusCompleted); err == nil {
		t.Fatal("setStatus should surface the store error")
	}
	if got, _ := repo.Find(task.ID); got.Status != model.StatusTodo {
		t.Error("failed setStatus must keep the old status")
	}
}

func TestQueryDelegatesToFilter(t *testing.T) {
	repo, _ := newTaskRepo()
	repo.Create(Draft{Title: "pay rent", Category: "personal", Priority: model.PriorityHigh})
	repo.Create(Draft{Title: "standup notes", Category: "work"})

	got := repo.Query(filter.Criteria{Category: "work"})
	if len(got) != 1 || got[0].Title != "standup notes" {
		t.Errorf("query by category: %+v", got)
	}

	if n := len(repo.Query(filter.Criteria{})); n != 2 {
		t.Errorf("empty criteria should return every task, got %d", n)
	}

	if len(repo.All()) != 2 {
		t.Error("query must not mutate the collection")
	}
}
