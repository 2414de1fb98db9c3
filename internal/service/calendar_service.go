package service

import (
	"sort"
	"time"

	"taskboard/internal/model"
)

// Event is a calendar entry derived from a due-dated task.
type Event struct {
	ID    string
	Title string
	Start time.Time
	Color string
}

// CalendarService projects tasks with due dates onto calendar events.
type CalendarService struct {
	tasks TaskLister
}

func NewCalendarService(tasks TaskLister) *CalendarService {
	return &CalendarService{tasks: tasks}
}

// Events returns one event per due-dated task, colored by priority and
// sorted by start time.
func (s *CalendarService) Events() []Event {
	var events []Event
	for _, task := range s.tasks.All() {
		if task.DueDate == nil {
			continue
		}
		events = append(events, Event{
			ID:    task.ID,
			Title: task.Title,
			Start: *task.DueDate,
			Color: model.PriorityColor(task.Priority),
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// EventsInMonth filters Events to the calendar month containing ref.
func (s *CalendarService) EventsInMonth(ref time.Time) []Event {
	year, month, _ := ref.Date()
	var events []Event
	for _, ev := range s.Events() {
		y, m, _ := ev.Start.In(ref.Location()).Date()
		if y == year && m == month {
			events = append(events, ev)
		}
	}
	return events
}
