package repository

import (
	"errors"
	"testing"

	"taskboard/internal/model"
)

func newCategoryRepo(categories []model.Category) (*CategoryRepository, *TaskRepository, *memStore) {
	st := &memStore{}
	tasks := NewTaskRepository(st, nil)
	return NewCategoryRepository(st, tasks, categories), tasks, st
}

func TestCreateCategoryNormalizesName(t *testing.T) {
	repo, _, _ := newCategoryRepo(nil)

	category, err := repo.Create("  Work ", "#ff0000")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if category.Name != "work" {
		t.Errorf("name = %q, want trimmed lowercase", category.Name)
	}
	if category.Color != "#ff0000" {
		t.Errorf("color = %q", category.Color)
	}
}

func TestCreateCategoryRejectsCaseInsensitiveDuplicate(t *testing.T) {
	repo, _, st := newCategoryRepo([]model.Category{{Name: "work", Color: "#ff4444"}})
	saves := st.catSaves

	if _, err := repo.Create("Work", "#000000"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
	if len(repo.List()) != 1 {
		t.Error("category count must be unchanged after a rejected create")
	}
	if st.catSaves != saves {
		t.Error("rejected create must not persist")
	}
}

func TestCreateCategoryRejectsEmptyName(t *testing.T) {
	repo, _, _ := newCategoryRepo(nil)
	if _, err := repo.Create("   ", "#123456"); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("got %v, want ErrEmptyName", err)
	}
}

func TestDeleteCategoryReassignsTasks(t *testing.T) {
	repo, tasks, st := newCategoryRepo([]model.Category{{Name: "urgent", Color: "#ff0000"}})
	tasks.Create(Draft{Title: "a", Category: "urgent"})
	tasks.Create(Draft{Title: "b", Category: "urgent"})
	tasks.Create(Draft{Title: "c", Category: "work"})
	taskSaves := st.taskSaves

	reassigned, err := repo.Delete("urgent")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if reassigned != 2 {
		t.Errorf("reassigned = %d, want 2", reassigned)
	}

	for _, task := range tasks.All() {
		switch task.Title {
		case "a", "b":
			if task.Category != model.Uncategorized {
				t.Errorf("task %s category = %q, want uncategorized", task.Title, task.Category)
			}
		case "c":
			if task.Category != "work" {
				t.Errorf("unrelated task was touched: %q", task.Category)
			}
		}
	}

	if st.taskSaves != taskSaves+1 {
		t.Error("reassignment must persist tasks once")
	}
	for _, cat := range repo.List() {
		if cat.Name == "urgent" {
			t.Error("deleted category still listed")
		}
	}
}

func TestDeleteCategoryWithoutTasksSkipsTaskPersist(t *testing.T) {
	repo, _, st := newCategoryRepo([]model.Category{{Name: "empty", Color: "#123"}})
	taskSaves := st.taskSaves

	if _, err := repo.Delete("empty"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if st.taskSaves != taskSaves {
		t.Error("tasks must not be persisted when nothing was reassigned")
	}
	if st.catSaves == 0 {
		t.Error("categories must be persisted")
	}
}

func TestDeleteUnknownCategory(t *testing.T) {
	repo, _, _ := newCategoryRepo(nil)
	if _, err := repo.Delete("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteCategoryAbortsWhenTaskPersistFails(t *testing.T) {
	repo, tasks, st := newCategoryRepo([]model.Category{{Name: "urgent", Color: "#f00"}})
	tasks.Create(Draft{Title: "a", Category: "urgent"})

	st.failTasks = true
	if _, err := repo.Delete("urgent"); err == nil {
		t.Fatal("delete should surface the task persist error")
	}

	if got, _ := tasks.Find(tasks.All()[0].ID); got.Category != "urgent" {
		t.Error("task reassignment must roll back when persist fails")
	}
	if _, err := repo.Find("urgent"); err != nil {
		t.Error("category must stay when reassignment could not be persisted")
	}
}

func TestCountTasks(t *testing.T) {
	repo, tasks, _ := newCategoryRepo([]model.Category{{Name: "work", Color: "#f44"}})
	tasks.Create(Draft{Title: "a", Category: "work"})
	tasks.Create(Draft{Title: "b", Category: "home"})

	if got := repo.CountTasks("work"); got != 1 {
		t.Errorf("CountTasks = %d, want 1", got)
	}
}

func TestListKeepsInsertionOrder(t *testing.T) {
	repo, _, _ := newCategoryRepo(model.DefaultCategories())
	repo.Create("errands", "#abcdef")

	got := repo.List()
	want := []string{"work", "personal", "shopping", "errands"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, got[i].Name, name)
		}
	}
}
