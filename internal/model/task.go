package model

import "time"

// Status is the kanban column a task belongs to.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the columns in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority marks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

var priorityColors = map[Priority]string{
	PriorityHigh:   "#e53e3e",
	PriorityMedium: "#d97706",
	PriorityLow:    "#059669",
}

// PriorityColor returns the display color token for p, defaulting to low.
func PriorityColor(p Priority) string {
	if c, ok := priorityColors[p]; ok {
		return c
	}
	return priorityColors[PriorityLow]
}

// Attachment is a file captured at task creation. Payload is a data URL.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Payload  string `json:"payload"`
}

// Task represents a single card on the board.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Priority    Priority     `json:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Recurrence  string       `json:"recurrence,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Status      Status       `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	OrderIndex  int          `json:"orderIndex"`
}
