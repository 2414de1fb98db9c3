package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

// Snapshot keys. Each holds a whole collection serialized as JSON, written
// wholesale after every mutation and read once at startup.
const (
	keyTasks      = "tasks"
	keyCategories = "categories"
	keyTheme      = "theme"
)

type snapshot struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

// Store persists board state as key/value JSON snapshots.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveTasks writes the full task list.
func (s *Store) SaveTasks(tasks []model.Task) error {
	return s.save(keyTasks, tasks)
}

// LoadTasks reads the task list. ok is false when no snapshot exists yet.
func (s *Store) LoadTasks() (tasks []model.Task, ok bool, err error) {
	ok, err = s.load(keyTasks, &tasks)
	return tasks, ok, err
}

// SaveCategories writes the full category list.
func (s *Store) SaveCategories(categories []model.Category) error {
	return s.save(keyCategories, categories)
}

// LoadCategories reads the category list. ok is false when no snapshot exists yet.
func (s *Store) LoadCategories() (categories []model.Category, ok bool, err error) {
	ok, err = s.load(keyCategories, &categories)
	return categories, ok, err
}

// SaveTheme writes the theme preference.
func (s *Store) SaveTheme(theme model.Theme) error {
	return s.save(keyTheme, theme)
}

// LoadTheme reads the theme preference. ok is false when none is stored.
func (s *Store) LoadTheme() (theme model.Theme, ok bool, err error) {
	ok, err = s.load(keyTheme, &theme)
	return theme, ok, err
}

func (s *Store) save(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	row := snapshot{Key: key, Value: raw}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) load(key string, out interface{}) (bool, error) {
	var row snapshot
	err := s.db.First(&row, "key = ?", key).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(row.Value, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
