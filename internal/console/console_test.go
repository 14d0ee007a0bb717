package console

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"easin-planner/internal/messages"
	"easin-planner/internal/model"
	"easin-planner/internal/repository"
	"easin-planner/internal/service"
)

var testNow = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

type fixture struct {
	console *Console
	planner *service.Planner
	msgs    *messages.Provider
	out     *bytes.Buffer
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	persister := service.NewPersister(store, zap.NewNop(), 0)
	t.Cleanup(func() { _ = persister.Close(context.Background()) })

	msgs := messages.Default(messages.WithIntn(func(int) int { return 0 }))
	opts := []service.PlannerOption{service.WithClock(func() time.Time { return testNow })}
	if len(ids) > 0 {
		next := 0
		opts = append(opts, service.WithIDGenerator(func() string {
			id := ids[next%len(ids)]
			next++
			return id
		}))
	}
	planner := service.NewPlanner(store, persister, msgs, zap.NewNop(), opts...)
	planner.Initialize(context.Background())

	out := &bytes.Buffer{}
	c := New(planner, service.NewReminderService(planner, msgs), strings.NewReader(""), out, zap.NewNop())
	return &fixture{console: c, planner: planner, msgs: msgs, out: out}
}

func (f *fixture) send(t *testing.T, lines ...string) string {
	t.Helper()
	f.out.Reset()
	for _, line := range lines {
		err := f.console.handleLine(line)
		require.NoError(t, err, line)
	}
	return f.out.String()
}

func TestConsole_StartOnboardsOnce(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "/start")
	assert.Contains(t, out, "I'm your daily planner")
	assert.True(t, f.planner.HasCompletedOnboarding())

	out = f.send(t, "/start")
	assert.Contains(t, out, "Welcome back")
	assert.Contains(t, out, "Today's plan")
}

func TestConsole_NewTaskConversation(t *testing.T) {
	f := newFixture(t, "task-0001")

	out := f.send(t,
		"/newtask",
		"Prepare slides",
		"for the Monday sync",
		"gardening",
		"work",
		"tomorrow-ish",
		"14:30",
		"high",
		"-",
		"45",
	)

	assert.Contains(t, out, "Pick one of:")
	assert.Contains(t, out, "I can't read that time")
	assert.Contains(t, out, "✅ Task saved [task-000]")

	tasks := f.planner.Tasks()
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "Prepare slides", task.Title)
	assert.Equal(t, "for the Monday sync", task.Description)
	assert.Equal(t, model.CategoryWork, task.Category)
	assert.Equal(t, model.EnergyHigh, task.EnergyLevel)
	assert.Equal(t, model.Priority(""), task.Priority)
	assert.Equal(t, 45, task.EstimatedDuration)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)))

	out = f.send(t, "plain text")
	assert.Contains(t, out, "I didn't get that")
}

func TestConsole_CancelConversation(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "/newtask", "Half done", "/cancel", "something")
	assert.Contains(t, out, "cancelled")
	assert.Contains(t, out, "I didn't get that")
	assert.Empty(t, f.planner.Tasks())
}

func TestConsole_DoneCelebratesAndHides(t *testing.T) {
	f := newFixture(t, "abc123456789")

	f.send(t, "/add Water plants")
	require.Len(t, f.planner.Tasks(), 1)

	out := f.send(t, "/done abc")
	firstLabel, err := f.msgs.Achievement(messages.AchievementFirstTask)
	require.NoError(t, err)
	assert.Contains(t, out, f.msgs.Random(messages.FirstTask))
	assert.Contains(t, out, firstLabel)
	assert.False(t, f.planner.Celebration().Visible)

	task, _ := f.planner.Task("abc123456789")
	assert.True(t, task.Completed)

	out = f.send(t, "/done abc123456789")
	assert.Contains(t, out, "is open again")
	assert.Equal(t, 1, f.planner.TotalCompleted())
}

func TestConsole_IDResolution(t *testing.T) {
	f := newFixture(t, "aaa111", "aaa222", "bbb333")
	f.send(t, "/add one", "/add two", "/add three")

	out := f.send(t, "/delete aaa")
	assert.Contains(t, out, "matches 2 tasks")
	assert.Len(t, f.planner.Tasks(), 3)

	out = f.send(t, "/delete zzz")
	assert.Contains(t, out, `no task with id "zzz"`)

	out = f.send(t, "/delete")
	assert.Contains(t, out, "/delete <id>")

	out = f.send(t, "/delete aaa2")
	assert.Contains(t, out, `Task "two" deleted`)
	assert.Len(t, f.planner.Tasks(), 2)
}

func TestConsole_Edit(t *testing.T) {
	f := newFixture(t, "edit-me-please")
	f.send(t, "/add Draft")

	out := f.send(t, "/edit edit title=Final draft v2 priority=high due=16:00 duration=30 category=learning")
	assert.Contains(t, out, "Updated")

	task, ok := f.planner.Task("edit-me-please")
	require.True(t, ok)
	assert.Equal(t, "Final draft v2", task.Title)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, 30, task.EstimatedDuration)
	assert.Equal(t, model.CategoryLearning, task.Category)
	assert.True(t, task.DueDate.Equal(time.Date(2026, 10, 17, 16, 0, 0, 0, time.UTC)))

	out = f.send(t, "/edit edit priority=urgent")
	assert.Contains(t, out, "priority is high, medium or low")
	task, _ = f.planner.Task("edit-me-please")
	assert.Equal(t, model.PriorityHigh, task.Priority)

	f.send(t, "/edit edit due=none")
	task, _ = f.planner.Task("edit-me-please")
	assert.Nil(t, task.DueDate)

	out = f.send(t, "/edit edit")
	assert.Contains(t, out, "Nothing to change")
}

func TestConsole_TodayAndReport(t *testing.T) {
	f := newFixture(t, "t1")
	f.send(t, "/add Stand-up", "/edit t1 due=09:00")

	out := f.send(t, "/today")
	assert.Contains(t, out, "Today · 0/1 done")
	assert.Contains(t, out, "Next up: Stand-up")
	assert.Contains(t, out, service.SuggestStartPriority)

	out = f.send(t, "/report")
	assert.Contains(t, out, "Today's plan")
	assert.Contains(t, out, "Stand-up")
}

func TestConsole_KickoffReflectMotivate(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "/kickoff")
	assert.Contains(t, out, "Tell me your top priority")

	f.send(t, "/kickoff Ship the release")
	goal, ok := f.planner.MorningKickoff()
	require.True(t, ok)
	assert.Equal(t, "Ship the release", goal)
	assert.Contains(t, f.send(t, "/kickoff"), "Ship the release")

	f.send(t, "/reflect Good focus, too many meetings")
	reflection, ok := f.planner.EndOfDayReflection()
	require.True(t, ok)
	assert.Equal(t, "Good focus, too many meetings", reflection)

	assert.Contains(t, f.send(t, "/motivate"), f.msgs.Random(messages.Encouragement))
}

func TestConsole_Achievements(t *testing.T) {
	f := newFixture(t, "x1")

	out := f.send(t, "/achievements")
	assert.Contains(t, out, "None yet")
	assert.Contains(t, out, "Tasks completed: 0")

	f.send(t, "/add Stretch", "/done x1")
	out = f.send(t, "/achievements")
	assert.Contains(t, out, "First Step")
	assert.Contains(t, out, "Tasks completed: 1")
	assert.Contains(t, out, "Streak: 1 day(s)")
}

func TestConsole_RunStopsOnQuit(t *testing.T) {
	f := newFixture(t, "r1")
	input := strings.NewReader("/add From stdin\n/quit\n/add never\n")
	out := &bytes.Buffer{}
	c := New(f.planner, service.NewReminderService(f.planner, f.msgs), input, out, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	assert.Len(t, f.planner.Tasks(), 1)
	assert.Contains(t, out.String(), "See you tomorrow")
}

func TestConsole_RunEndsAtEOF(t *testing.T) {
	f := newFixture(t)
	c := New(f.planner, service.NewReminderService(f.planner, f.msgs), strings.NewReader("/help\n"), f.out, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx))
	assert.Contains(t, f.out.String(), "/newtask")
}

func TestConsole_Notify(t *testing.T) {
	f := newFixture(t)
	f.console.Notify("Good morning", "What matters today?")
	assert.Contains(t, f.out.String(), "Good morning")
	assert.Contains(t, f.out.String(), "What matters today?")
}

func TestParseFields(t *testing.T) {
	fields := parseFields("title=Buy milk and bread priority=low  oops=")
	assert.Equal(t, []field{
		{name: "title", value: "Buy milk and bread"},
		{name: "priority", value: "low"},
		{name: "oops", value: ""},
	}, fields)

	assert.Empty(t, parseFields("no equals here"))
}

func TestFindTask(t *testing.T) {
	tasks := []model.Task{{ID: "abc"}, {ID: "abcd"}, {ID: "xyz"}}

	task, err := findTask(tasks, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", task.ID, "exact match wins over prefix")

	task, err = findTask(tasks, "x")
	require.NoError(t, err)
	assert.Equal(t, "xyz", task.ID)

	_, err = findTask(tasks, "a")
	assert.EqualError(t, err, fmt.Sprintf("id %q matches 2 tasks, type more of it", "a"))
}
