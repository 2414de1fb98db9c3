package service

import (
	"testing"
	"time"

	"taskboard/internal/model"
)

func TestEventsSkipTasksWithoutDueDate(t *testing.T) {
	due := time.Date(2026, time.June, 5, 14, 0, 0, 0, time.UTC)
	lister := &stubLister{tasks: []model.Task{
		{ID: "a", Title: "dated", DueDate: &due, Priority: model.PriorityHigh},
		{ID: "b", Title: "undated"},
	}}
	svc := NewCalendarService(lister)

	events := svc.Events()
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1", len(events))
	}
	if events[0].ID != "a" || !events[0].Start.Equal(due) {
		t.Errorf("event = %+v", events[0])
	}
	if events[0].Color != model.PriorityColor(model.PriorityHigh) {
		t.Errorf("color = %q, want the high-priority token", events[0].Color)
	}
}

func TestEventsSortedByStart(t *testing.T) {
	base := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	later := base.AddDate(0, 0, 10)
	earlier := base.AddDate(0, 0, 2)
	lister := &stubLister{tasks: []model.Task{
		{ID: "late", Title: "late", DueDate: &later},
		{ID: "early", Title: "early", DueDate: &earlier},
	}}

	events := NewCalendarService(lister).Events()
	if len(events) != 2 || events[0].ID != "early" || events[1].ID != "late" {
		t.Errorf("events out of order: %+v", events)
	}
}

func TestEventsInMonth(t *testing.T) {
	inMonth := time.Date(2026, time.June, 20, 9, 0, 0, 0, time.UTC)
	nextMonth := time.Date(2026, time.July, 1, 9, 0, 0, 0, time.UTC)
	lister := &stubLister{tasks: []model.Task{
		{ID: "june", Title: "june", DueDate: &inMonth},
		{ID: "july", Title: "july", DueDate: &nextMonth},
	}}

	ref := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	events := NewCalendarService(lister).EventsInMonth(ref)
	if len(events) != 1 || events[0].ID != "june" {
		t.Errorf("events = %+v, want only the June task", events)
	}
}
