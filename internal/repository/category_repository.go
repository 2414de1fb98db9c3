package repository

import (
	"fmt"
	"strings"
	"sync"

	"taskboard/internal/model"
)

// CategoryStore persists the full category list after every mutation.
type CategoryStore interface {
	SaveCategories(categories []model.Category) error
}

// CategoryRepository owns the in-memory category collection. Deleting a
// category reassigns its tasks, so the repository collaborates with the
// task repository.
type CategoryRepository struct {
	mu         sync.Mutex
	store      CategoryStore
	tasks      *TaskRepository
	categories []model.Category
}

// NewCategoryRepository wraps the snapshot loaded at startup.
func NewCategoryRepository(store CategoryStore, tasks *TaskRepository, categories []model.Category) *CategoryRepository {
	return &CategoryRepository{store: store, tasks: tasks, categories: categories}
}

// Create adds a category. The name is trimmed and lowercased; empty names
// and case-insensitive duplicates are rejected.
func (r *CategoryRepository) Create(name, color string) (model.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return model.Category{}, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cat := range r.categories {
		if strings.EqualFold(cat.Name, name) {
			return model.Category{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}

	category := model.Category{Name: name, Color: color}
	r.categories = append(r.categories, category)
	if err := r.persist(); err != nil {
		r.categories = r.categories[:len(r.categories)-1]
		return model.Category{}, err
	}
	return category, nil
}

// Delete removes a category and reassigns every task referencing it to the
// uncategorized sentinel. Returns how many tasks were reassigned.
func (r *CategoryRepository) Delete(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	r.mu.Lock()
	defer r.mu.Unlock()

	i := -1
	for j, cat := range r.categories {
		if cat.Name == name {
			i = j
			break
		}
	}
	if i < 0 {
		return 0, ErrNotFound
	}

	// Reassign tasks first: if their persist fails the category stays put
	// and nothing has changed.
	reassigned, err := r.tasks.ReassignCategory(name)
	if err != nil {
		return 0, err
	}

	removed := r.categories[i]
	r.categories = append(r.categories[:i], r.categories[i+1:]...)
	if err := r.persist(); err != nil {
		r.categories = append(r.categories[:i], append([]model.Category{removed}, r.categories[i:]...)...)
		return reassigned, err
	}
	return reassigned, nil
}

// CountTasks returns how many tasks currently reference the category, for
// the boundary layer's delete confirmation prompt.
func (r *CategoryRepository) CountTasks(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	count := 0
	for _, task := range r.tasks.All() {
		if task.Category == name {
			count++
		}
	}
	return count
}

// List returns categories in insertion order. The "all" pseudo-category is
// a presentation concept and is never stored here.
func (r *CategoryRepository) List() []model.Category {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Find returns the category with the given name.
func (r *CategoryRepository) Find(name string) (model.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cat := range r.categories {
		if cat.Name == name {
			return cat, nil
		}
	}
	return model.Category{}, ErrNotFound
}

func (r *CategoryRepository) persist() error {
	snapshot := make([]model.Category, len(r.categories))
	copy(snapshot, r.categories)
	if err := r.store.SaveCategories(snapshot); err != nil {
		return fmt.Errorf("persist categories: %w", err)
	}
	return nil
}
