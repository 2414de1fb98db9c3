package service

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/model"
)

// Notifier delivers a due-soon notification. Implemented by the
// presentation layer.
type Notifier interface {
	NotifyDueSoon(task model.Task, remaining time.Duration)
}

// TaskLister exposes the task collection to the reminder scan.
type TaskLister interface {
	All() []model.Task
}

// ReminderService scans tasks on a fixed tick and notifies once per task
// crossing into the lookahead window. Re-arming happens when a task's
// due date changes; entries are pruned when a task passes due or is
// deleted.
type ReminderService struct {
	tasks     TaskLister
	notifier  Notifier
	lookahead time.Duration

	mu       sync.Mutex
	notified map[string]time.Time // task ID -> due date already notified for
}

func NewReminderService(tasks TaskLister, notifier Notifier, lookahead time.Duration) *ReminderService {
	return &ReminderService{
		tasks:     tasks,
		notifier:  notifier,
		lookahead: lookahead,
		notified:  make(map[string]time.Time),
	}
}

// CheckDueTasks is the periodic tick body.
func (s *ReminderService) CheckDueTasks(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inWindow := make(map[string]struct{})
	for _, task := range s.tasks.All() {
		if task.DueDate == nil {
			continue
		}
		remaining := task.DueDate.Sub(now)
		if remaining <= 0 || remaining > s.lookahead {
			continue
		}
		inWindow[task.ID] = struct{}{}

		if due, ok := s.notified[task.ID]; ok && due.Equal(*task.DueDate) {
			continue
		}
		s.notified[task.ID] = *task.DueDate

		log.Infof("task %s due in %s, notifying", task.ID, remaining.Round(time.Second))
		s.notifier.NotifyDueSoon(task, remaining)
	}

	// Drop entries for tasks that left the window (deleted, past due, or
	// rescheduled out) so the set stays small.
	for id := range s.notified {
		if _, ok := inWindow[id]; !ok {
			delete(s.notified, id)
		}
	}
}
