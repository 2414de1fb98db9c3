// Package app wires the board's state: it loads the persisted snapshots
// once at startup and owns the repositories and services for the lifetime
// of the process.
package app

import (
	"fmt"
	"sync"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/store"
)

// App is the application context handed to the presentation layer.
type App struct {
	Tasks      *repository.TaskRepository
	Categories *repository.CategoryRepository
	Calendar   *service.CalendarService

	store *store.Store

	mu    sync.Mutex
	theme model.Theme
}

// New loads persisted state and constructs the repositories. A fresh
// database starts with no tasks, the default categories and a light theme.
func New(st *store.Store) (*App, error) {
	tasks, _, err := st.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	categories, ok, err := st.LoadCategories()
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if !ok {
		categories = model.DefaultCategories()
		if err := st.SaveCategories(categories); err != nil {
			return nil, fmt.Errorf("seed categories: %w", err)
		}
	}

	theme, ok, err := st.LoadTheme()
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}
	if !ok {
		theme = model.ThemeLight
	}

	taskRepo := repository.NewTaskRepository(st, tasks)
	categoryRepo := repository.NewCategoryRepository(st, taskRepo, categories)

	return &App{
		Tasks:      taskRepo,
		Categories: categoryRepo,
		Calendar:   service.NewCalendarService(taskRepo),
		store:      st,
		theme:      theme,
	}, nil
}

// Theme returns the current display theme.
func (a *App) Theme() model.Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

// ToggleTheme flips light/dark, persisting before the switch takes effect.
func (a *App) ToggleTheme() (model.Theme, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := model.ThemeDark
	if a.theme == model.ThemeDark {
		next = model.ThemeLight
	}
	if err := a.store.SaveTheme(next); err != nil {
		return a.theme, fmt.Errorf("persist theme: %w", err)
	}
	a.theme = next
	return next, nil
}
