package model

import "time"

// Achievement is an unlocked milestone. Records are append-only.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlockedAt"`
	Icon        string    `json:"icon"`
}

// Celebration is the transient completion banner. Only one is live at a time.
type Celebration struct {
	Visible     bool
	Message     string
	Achievement string
}

// Streak counts consecutive calendar days with at least one completion.
type Streak struct {
	Count   int    `json:"count"`
	LastDay string `json:"lastDay,omitempty"` // 2006-01-02
}

// DayLayout is the calendar-day format used for Streak.LastDay.
const DayLayout = "2006-01-02"

// TimeSlot is one hour of today's timeline.
type TimeSlot struct {
	Hour  int
	Label string
	Tasks []Task
}

// Progress summarizes today's tasks.
type Progress struct {
	Completed int
	Total     int
	Percent   float64
}
