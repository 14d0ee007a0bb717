package service

import (
	"fmt"
	"strings"
	"time"

	"easin-planner/internal/messages"
	"easin-planner/internal/model"
)

// ReminderService builds human-readable texts for the daily plan.
type ReminderService struct {
	planner *Planner
	msgs    *messages.Provider
}

func NewReminderService(planner *Planner, msgs *messages.Provider) *ReminderService {
	return &ReminderService{planner: planner, msgs: msgs}
}

// DailySummary renders today's plan: focus, progress, timeline and a hint.
func (s *ReminderService) DailySummary() string {
	now := s.planner.Today()
	today := s.planner.TodaysTasks()
	progress := s.planner.Progress()

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 Today's plan · %s\n", now.Format("Monday, January 2")))

	if goal, ok := s.planner.MorningKickoff(); ok && strings.TrimSpace(goal) != "" {
		builder.WriteString(fmt.Sprintf("🎯 Focus: %s\n", strings.TrimSpace(goal)))
	}
	builder.WriteString(fmt.Sprintf("✅ Progress: %d/%d done (%.0f%%)\n", progress.Completed, progress.Total, progress.Percent))
	switch streak := s.planner.Streak(); {
	case streak.Count > 1:
		builder.WriteString(s.msgs.StreakMessage(streak.Count) + "\n")
	case streak.Count == 1:
		builder.WriteString("🔥 Streak: 1 day(s)\n")
	}

	builder.WriteString("\n🕘 Timeline\n")
	if len(today) == 0 {
		builder.WriteString("Nothing planned for today.\n")
	}
	for _, slot := range s.planner.Timeline() {
		for _, task := range slot.Tasks {
			builder.WriteString(FormatTaskLine(task, now.Location()))
		}
	}

	var outside []model.Task
	for _, task := range today {
		h := task.DueDate.In(now.Location()).Hour()
		if h < timelineFirstHour || h > timelineLastHour {
			outside = append(outside, task)
		}
	}
	if len(outside) > 0 {
		builder.WriteString("\n🌙 Other times\n")
		for _, task := range outside {
			builder.WriteString(FormatTaskLine(task, now.Location()))
		}
	}

	if suggestions := s.planner.SmartSuggestions(); len(suggestions) > 0 {
		builder.WriteString(fmt.Sprintf("\n💡 %s\n", suggestions[0]))
	}
	if goal := s.msgs.Random(messages.DailyGoal); goal != "" {
		builder.WriteString(goal)
		builder.WriteByte('\n')
	}

	return strings.TrimSpace(builder.String())
}

// MorningPrompt asks for the day's top priority.
func (s *ReminderService) MorningPrompt() string {
	var builder strings.Builder
	builder.WriteString("☀️ Good morning!\n")
	if goal := s.msgs.Random(messages.DailyGoal); goal != "" {
		builder.WriteString(goal)
		builder.WriteByte('\n')
	}
	builder.WriteString("What is your top priority today? Reply with /kickoff <goal>.")
	return builder.String()
}

// EveningPrompt closes the day with the summary and asks for a reflection.
func (s *ReminderService) EveningPrompt() string {
	return s.DailySummary() + "\n\n🌙 How did today go? Reply with /reflect <thoughts>."
}

// FormatTaskLine renders one task as a single list line.
func FormatTaskLine(task model.Task, loc *time.Location) string {
	var sb strings.Builder

	check := "☐"
	if task.Completed {
		check = "☑"
	}
	when := "--:--"
	if task.DueDate != nil {
		when = task.DueDate.In(loc).Format("15:04")
	}
	sb.WriteString(fmt.Sprintf("%s %s", when, check))
	if task.Category != "" {
		sb.WriteString(" " + task.Category.Icon())
	}
	sb.WriteString(" " + strings.TrimSpace(task.Title))

	var tags []string
	if task.Priority != "" {
		tags = append(tags, string(task.Priority)+" priority")
	}
	if task.EnergyLevel != "" {
		tags = append(tags, string(task.EnergyLevel)+" energy")
	}
	if task.EstimatedDuration > 0 {
		tags = append(tags, fmt.Sprintf("%d min", task.EstimatedDuration))
	}
	if len(tags) > 0 {
		sb.WriteString(" (" + strings.Join(tags, ", ") + ")")
	}
	sb.WriteByte('\n')
	return sb.String()
}
