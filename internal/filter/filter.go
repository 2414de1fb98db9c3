// Package filter computes task visibility for the board's search and
// filter controls. Matching is a pure function of the task, the criteria
// and the evaluation instant.
package filter

import (
	"strings"
	"time"

	"taskboard/internal/model"
)

// DueBucket is a time-relative due date filter.
type DueBucket string

const (
	DueAll       DueBucket = "all"
	DueToday     DueBucket = "today"
	DueTomorrow  DueBucket = "tomorrow"
	DueNext7     DueBucket = "next7"
	DueOverdue   DueBucket = "overdue"
	DueNoDueDate DueBucket = "noduedate"
)

// Criteria selects which tasks are visible. Zero values mean "no filter":
// empty search matches everything, empty Category/Priority are treated as
// "all", empty DueBucket as DueAll.
type Criteria struct {
	Search    string
	Category  string
	Priority  string
	DueBucket DueBucket
}

// Matches reports whether a task passes every criterion. All four
// predicates must hold.
func Matches(task model.Task, c Criteria, now time.Time) bool {
	return matchesSearch(task, c.Search) &&
		matchesCategory(task, c.Category) &&
		matchesPriority(task, c.Priority) &&
		matchesDue(task, c.DueBucket, now)
}

func matchesSearch(task model.Task, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle)
}

func matchesCategory(task model.Task, category string) bool {
	return category == "" || category == model.CategoryAll || task.Category == category
}

func matchesPriority(task model.Task, priority string) bool {
	return priority == "" || priority == "all" || string(task.Priority) == priority
}

func matchesDue(task model.Task, bucket DueBucket, now time.Time) bool {
	switch bucket {
	case "", DueAll:
		return true
	case DueNoDueDate:
		return task.DueDate == nil
	}

	// Every remaining bucket requires a due date.
	if task.DueDate == nil {
		return false
	}
	due := task.DueDate.In(now.Location())

	today := startOfDay(now)
	switch bucket {
	case DueToday:
		return startOfDay(due).Equal(today)
	case DueTomorrow:
		return startOfDay(due).Equal(today.AddDate(0, 0, 1))
	case DueNext7:
		// Inclusive window [today 00:00, today 00:00 + 7 days].
		end := today.AddDate(0, 0, 7)
		return !due.Before(today) && !due.After(end)
	case DueOverdue:
		return due.Before(now)
	default:
		return true
	}
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
