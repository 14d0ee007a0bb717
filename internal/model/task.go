package model

import "time"

// Task represents a single item in the planner.
type Task struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Completed         bool        `json:"completed"`
	DueDate           *time.Time  `json:"dueDate,omitempty"`
	Category          Category    `json:"category,omitempty"`
	EnergyLevel       EnergyLevel `json:"energyLevel,omitempty"`
	EstimatedDuration int         `json:"estimatedDuration,omitempty"` // minutes
	Priority          Priority    `json:"priority,omitempty"`
	Description       string      `json:"description,omitempty"`
	// EverCompleted is set on the first false->true transition and never cleared.
	EverCompleted bool `json:"everCompleted,omitempty"`
}

// DueOn reports whether the task is due on the calendar day of day, compared
// in day's location.
func (t Task) DueOn(day time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return SameDay(t.DueDate.In(day.Location()), day)
}

// SameDay compares local year, month and day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EnergyLevel describes how demanding a task is.
type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// Priority is the user-assigned importance of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParseEnergyLevel accepts the lower-case level names.
func ParseEnergyLevel(raw string) (EnergyLevel, bool) {
	switch EnergyLevel(raw) {
	case EnergyHigh, EnergyMedium, EnergyLow:
		return EnergyLevel(raw), true
	default:
		return "", false
	}
}

// ParsePriority accepts the lower-case priority names.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(raw) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(raw), true
	default:
		return "", false
	}
}

// Rank orders priorities from most to least important; unset sorts last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}
