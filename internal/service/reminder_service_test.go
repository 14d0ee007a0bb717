package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easin-planner/internal/messages"
	"easin-planner/internal/model"
	"easin-planner/internal/repository"
)

func TestReminderService_DailySummary(t *testing.T) {
	p := loadedPlanner(t, repository.NewMemoryStore())
	msgs := messages.Default(messages.WithIntn(firstMessage))
	reminders := NewReminderService(p, msgs)

	done := p.AddTask(TaskInput{Title: "Inbox zero", DueDate: at(8, 30), Category: model.CategoryWork})
	p.AddTask(TaskInput{
		Title:             "Run",
		DueDate:           at(18, 0),
		Category:          model.CategoryHealth,
		EnergyLevel:       model.EnergyHigh,
		Priority:          model.PriorityHigh,
		EstimatedDuration: 40,
	})
	p.AddTask(TaskInput{Title: "Night owl", DueDate: at(23, 15)})
	p.ToggleTask(done.ID)
	p.SetMorningKickoff("  finish the draft ")

	summary := reminders.DailySummary()

	assert.Contains(t, summary, "📋 Today's plan · Saturday, October 17")
	assert.Contains(t, summary, "🎯 Focus: finish the draft")
	assert.Contains(t, summary, "✅ Progress: 1/3 done (33%)")
	assert.Contains(t, summary, "🔥 Streak: 1 day(s)")
	assert.Contains(t, summary, "08:30 ☑ "+model.CategoryWork.Icon()+" Inbox zero")
	assert.Contains(t, summary, "18:00 ☐ "+model.CategoryHealth.Icon()+" Run (high priority, high energy, 40 min)")
	assert.Contains(t, summary, "🌙 Other times\n23:15 ☐ Night owl")
	assert.Contains(t, summary, "💡 "+SuggestHighEnergy)
	assert.Contains(t, summary, msgs.Random(messages.DailyGoal))
}

func TestReminderService_EmptyDay(t *testing.T) {
	p := loadedPlanner(t, repository.NewMemoryStore())
	reminders := NewReminderService(p, messages.Default(messages.WithIntn(firstMessage)))

	summary := reminders.DailySummary()
	assert.Contains(t, summary, "✅ Progress: 0/0 done (0%)")
	assert.Contains(t, summary, "Nothing planned for today.")
	assert.Contains(t, summary, "💡 "+SuggestAddFirstTask)
	assert.NotContains(t, summary, "Focus")
	assert.NotContains(t, summary, "Other times")
}

func TestReminderService_Prompts(t *testing.T) {
	p := loadedPlanner(t, repository.NewMemoryStore())
	reminders := NewReminderService(p, messages.Default(messages.WithIntn(firstMessage)))

	morning := reminders.MorningPrompt()
	assert.Contains(t, morning, "Good morning")
	assert.Contains(t, morning, "/kickoff")

	evening := reminders.EveningPrompt()
	assert.Contains(t, evening, "Today's plan")
	assert.Contains(t, evening, "/reflect")
}

func TestFormatTaskLine(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)

	line := FormatTaskLine(model.Task{Title: " Read ", Completed: true, DueDate: at(7, 0), Category: model.CategoryLearning}, loc)
	require.Equal(t, "10:00 ☑ "+model.CategoryLearning.Icon()+" Read\n", line)

	line = FormatTaskLine(model.Task{Title: "Someday"}, time.UTC)
	assert.Equal(t, "--:-- ☐ Someday\n", line)
}

func TestReminderService_StreakMessage(t *testing.T) {
	clock := &testClock{now: testNow.AddDate(0, 0, -1)}
	p := loadedPlanner(t, repository.NewMemoryStore(), WithClock(clock.Now))
	msgs := messages.Default(messages.WithIntn(firstMessage))
	reminders := NewReminderService(p, msgs)

	first := p.AddTask(TaskInput{Title: "day one"})
	p.ToggleTask(first.ID)
	clock.now = testNow
	second := p.AddTask(TaskInput{Title: "day two"})
	p.ToggleTask(second.ID)

	require.Equal(t, 2, p.Streak().Count)
	assert.Contains(t, reminders.DailySummary(), msgs.StreakMessage(2))
}
