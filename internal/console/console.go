package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"easin-planner/internal/model"
	"easin-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageDue
	stageEnergy
	stagePriority
	stageDuration
)

const (
	dueLayout   = "2006-01-02 15:04"
	clockLayout = "15:04"
	shortIDLen  = 8
)

var errQuit = errors.New("quit")

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// Console is a line-oriented front-end over the planner.
type Console struct {
	planner   *service.Planner
	reminders *service.ReminderService
	log       *zap.Logger
	in        io.Reader

	outMu sync.Mutex
	out   io.Writer

	mu           sync.Mutex
	conversation *conversationState

	heading lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

func New(planner *service.Planner, reminders *service.ReminderService, in io.Reader, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	renderer := lipgloss.NewRenderer(out)
	return &Console{
		planner:   planner,
		reminders: reminders,
		log:       log.Named("console"),
		in:        in,
		out:       out,
		heading:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		muted:     renderer.NewStyle().Faint(true),
		box: renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1),
	}
}

// Run reads commands until input ends, /quit is entered or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.log.Info("console started")
	c.print(c.muted.Render("Type /help to see what I can do."))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := c.handleLine(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				c.log.Error("handle line", zap.Error(err))
			}
		}
	}
}

// Notify prints a message that did not come from user input, such as a
// scheduled prompt.
func (c *Console) Notify(title, text string) {
	c.print(c.heading.Render(title) + "\n" + text)
}

func (c *Console) handleLine(line string) error {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		name, args, _ := strings.Cut(text[1:], " ")
		c.log.Debug("command", zap.String("name", name), zap.String("args", args))
		return c.handleCommand(strings.ToLower(name), strings.TrimSpace(args))
	}

	if c.hasConversation() {
		c.handleConversation(text)
		return nil
	}

	c.print("I didn't get that. Type /newtask to add a task or /help for the list of commands.")
	return nil
}

func (c *Console) handleCommand(name, args string) error {
	switch name {
	case "start":
		c.handleStart()
	case "help":
		c.handleHelp()
	case "newtask":
		c.startNewTaskConversation()
	case "cancel":
		c.clearConversation()
		c.print("⏪ Task creation cancelled.")
	case "add":
		c.handleQuickAdd(args)
	case "tasks":
		c.handleListTasks()
	case "today":
		c.handleToday()
	case "done":
		c.handleToggle(args)
	case "edit":
		c.handleEdit(args)
	case "delete":
		c.handleDelete(args)
	case "kickoff":
		c.handleKickoff(args)
	case "reflect":
		c.handleReflect(args)
	case "motivate":
		c.print("💪 " + c.planner.MotivationalMessage())
	case "report":
		c.print(c.reminders.DailySummary())
	case "achievements":
		c.handleAchievements()
	case "quit", "exit":
		c.print("👋 See you tomorrow!")
		return errQuit
	default:
		c.print("Unknown command. See /help.")
	}
	return nil
}

func (c *Console) handleStart() {
	if c.planner.HasCompletedOnboarding() {
		c.print(c.heading.Render("👋 Welcome back!") + "\n" + c.reminders.DailySummary())
		return
	}
	c.planner.CompleteOnboarding()
	c.print(c.heading.Render("👋 Hi! I'm your daily planner.") + "\n" +
		"I help you plan the day around your energy, celebrate finished tasks and keep your streak going.\n" +
		"Start with /kickoff <your top priority>, then add tasks with /newtask.")
}

func (c *Console) handleHelp() {
	text := c.heading.Render("ℹ️ Commands") + "\n" +
		"• /newtask - add a task step by step (/cancel to stop)\n" +
		"• /add <title> - quick add a task due now\n" +
		"• /tasks - list every task\n" +
		"• /today - today's timeline and next task\n" +
		"• /done <id> - mark a task done or not done\n" +
		"• /edit <id> field=value - change title, description, category, due, energy, priority or duration\n" +
		"• /delete <id> - remove a task\n" +
		"• /kickoff <goal> - set today's top priority\n" +
		"• /reflect <text> - write the end-of-day reflection\n" +
		"• /motivate - a little encouragement\n" +
		"• /report - daily summary\n" +
		"• /achievements - unlocked achievements and streak\n" +
		"• /quit - leave\n" +
		c.muted.Render("Task ids can be shortened to any unique prefix.")
	c.print(text)
}

func (c *Console) startNewTaskConversation() {
	c.setConversation(&conversationState{stage: stageTitle})
	c.print("🆕 New task.\nStep 1: what should it be called?")
}

func (c *Console) handleConversation(text string) {
	c.mu.Lock()
	state := c.conversation
	c.mu.Unlock()
	if state == nil {
		return
	}

	switch state.stage {
	case stageTitle:
		state.input.Title = text
		state.stage = stageDescription
		c.print("✏️ A short description? (- to skip)")
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		c.print(fmt.Sprintf("🏷 Category: %s (- to skip)", joinCategories()))
	case stageCategory:
		if !isSkipInput(text) {
			category, ok := model.ParseCategory(strings.ToLower(text))
			if !ok {
				c.print(fmt.Sprintf("Pick one of: %s, or - to skip.", joinCategories()))
				return
			}
			state.input.Category = category
		}
		state.stage = stageDue
		c.print("⏰ When is it due? Use 2026-01-31 09:30 or 09:30 for today (- to skip).")
	case stageDue:
		if !isSkipInput(text) {
			due, err := c.parseDue(text)
			if err != nil {
				c.print("I can't read that time. Use 2026-01-31 09:30, 09:30 or -.")
				return
			}
			state.input.DueDate = &due
		}
		state.stage = stageEnergy
		c.print("⚡ Energy needed: high, medium or low? (- to skip)")
	case stageEnergy:
		if !isSkipInput(text) {
			level, ok := model.ParseEnergyLevel(strings.ToLower(text))
			if !ok {
				c.print("Energy is high, medium or low.")
				return
			}
			state.input.EnergyLevel = level
		}
		state.stage = stagePriority
		c.print("❗ Priority: high, medium or low? (- to skip)")
	case stagePriority:
		if !isSkipInput(text) {
			priority, ok := model.ParsePriority(strings.ToLower(text))
			if !ok {
				c.print("Priority is high, medium or low.")
				return
			}
			state.input.Priority = priority
		}
		state.stage = stageDuration
		c.print("⏳ Estimated duration in minutes? (- to skip)")
	case stageDuration:
		if !isSkipInput(text) {
			minutes, err := parseDuration(text)
			if err != nil {
				c.print("Duration must be a positive number of minutes.")
				return
			}
			state.input.EstimatedDuration = minutes
		}
		c.clearConversation()
		c.finishTaskCreation(state.input)
	default:
		c.clearConversation()
		c.print("Dialog reset. Try /newtask again.")
	}
}

func (c *Console) finishTaskCreation(input service.TaskInput) {
	task := c.planner.AddTask(input)
	c.log.Info("task created", zap.String("id", task.ID))
	c.print(fmt.Sprintf("✅ Task saved [%s]\n%s", shortID(task.ID), strings.TrimSuffix(c.formatTask(task), "\n")))
}

func (c *Console) handleQuickAdd(args string) {
	if args == "" {
		c.print("Give the task a title: /add Call mom")
		return
	}
	now := c.planner.Today()
	c.finishTaskCreation(service.TaskInput{Title: args, DueDate: &now})
}

func (c *Console) handleListTasks() {
	tasks := c.planner.Tasks()
	if len(tasks) == 0 {
		c.print("No tasks yet. Add one with /newtask.")
		return
	}

	var builder strings.Builder
	builder.WriteString(c.heading.Render("📋 Tasks"))
	builder.WriteByte('\n')
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("[%s] %s", shortID(task.ID), c.formatTask(task)))
	}
	c.print(strings.TrimSpace(builder.String()))
}

func (c *Console) handleToday() {
	today := c.planner.TodaysTasks()
	progress := c.planner.Progress()

	var builder strings.Builder
	builder.WriteString(c.heading.Render(fmt.Sprintf("🗓 Today · %d/%d done", progress.Completed, progress.Total)))
	builder.WriteByte('\n')
	if len(today) == 0 {
		builder.WriteString("Nothing planned for today.\n")
	}
	for _, task := range today {
		builder.WriteString(fmt.Sprintf("[%s] %s", shortID(task.ID), c.formatTask(task)))
	}
	if next, ok := c.planner.NextTask(); ok {
		builder.WriteString(fmt.Sprintf("\n👉 Next up: %s", strings.TrimSpace(next.Title)))
	}
	for _, suggestion := range c.planner.SmartSuggestions() {
		builder.WriteString("\n💡 " + suggestion)
	}
	c.print(strings.TrimSpace(builder.String()))
}

func (c *Console) handleToggle(args string) {
	task, ok := c.resolveTask(args, "/done")
	if !ok {
		return
	}
	if !c.planner.ToggleTask(task.ID) {
		c.print("Task not found.")
		return
	}
	if task.Completed {
		c.print(fmt.Sprintf("↩️ %q is open again.", strings.TrimSpace(task.Title)))
		return
	}
	c.log.Info("task completed", zap.String("id", task.ID))
	c.showCelebration()
}

func (c *Console) handleEdit(args string) {
	rawID, rest, _ := strings.Cut(args, " ")
	task, ok := c.resolveTask(rawID, "/edit")
	if !ok {
		return
	}
	fields := parseFields(rest)
	if len(fields) == 0 {
		c.print("Nothing to change. Example: /edit " + shortID(task.ID) + " title=New title priority=high")
		return
	}

	var upd service.TaskUpdate
	for _, f := range fields {
		if err := c.applyField(&upd, f.name, f.value); err != nil {
			c.print(err.Error())
			return
		}
	}
	if !c.planner.UpdateTask(task.ID, upd) {
		c.print("Task not found.")
		return
	}
	updated, _ := c.planner.Task(task.ID)
	c.print("✏️ Updated\n" + strings.TrimSuffix(c.formatTask(updated), "\n"))
}

func (c *Console) applyField(upd *service.TaskUpdate, name, value string) error {
	switch name {
	case "title":
		upd.Title = &value
	case "description", "desc":
		upd.Description = &value
	case "category":
		category, ok := model.ParseCategory(strings.ToLower(value))
		if !ok {
			return fmt.Errorf("unknown category %q, pick one of: %s", value, joinCategories())
		}
		upd.Category = &category
	case "due":
		if strings.EqualFold(value, "none") || value == "-" {
			upd.ClearDueDate = true
			return nil
		}
		due, err := c.parseDue(value)
		if err != nil {
			return fmt.Errorf("can't read due %q, use 2026-01-31 09:30 or 09:30", value)
		}
		upd.DueDate = &due
	case "energy":
		level, ok := model.ParseEnergyLevel(strings.ToLower(value))
		if !ok {
			return fmt.Errorf("energy is high, medium or low, got %q", value)
		}
		upd.EnergyLevel = &level
	case "priority":
		priority, ok := model.ParsePriority(strings.ToLower(value))
		if !ok {
			return fmt.Errorf("priority is high, medium or low, got %q", value)
		}
		upd.Priority = &priority
	case "duration":
		minutes, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("duration must be a positive number of minutes, got %q", value)
		}
		upd.EstimatedDuration = &minutes
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

func (c *Console) handleDelete(args string) {
	task, ok := c.resolveTask(args, "/delete")
	if !ok {
		return
	}
	if !c.planner.DeleteTask(task.ID) {
		c.print("Task not found.")
		return
	}
	c.log.Info("task deleted", zap.String("id", task.ID))
	c.print(fmt.Sprintf("🗑 Task %q deleted.", strings.TrimSpace(task.Title)))
}

func (c *Console) handleKickoff(args string) {
	if args == "" {
		if goal, ok := c.planner.MorningKickoff(); ok && goal != "" {
			c.print("🎯 Today's focus: " + goal)
			return
		}
		c.print("Tell me your top priority: /kickoff Finish the proposal")
		return
	}
	c.planner.SetMorningKickoff(args)
	c.print("🎯 Locked in. Today's focus: " + args)
}

func (c *Console) handleReflect(args string) {
	if args == "" {
		if reflection, ok := c.planner.EndOfDayReflection(); ok && reflection != "" {
			c.print("🌙 Last reflection: " + reflection)
			return
		}
		c.print("How did today go? /reflect <your thoughts>")
		return
	}
	c.planner.SetEndOfDayReflection(args)
	c.print("🌙 Reflection saved. Rest well!")
}

func (c *Console) handleAchievements() {
	var builder strings.Builder
	builder.WriteString(c.heading.Render("🏆 Achievements"))
	builder.WriteByte('\n')

	achievements := c.planner.Achievements()
	if len(achievements) == 0 {
		builder.WriteString("None yet. Finish a task to earn your first one!\n")
	}
	for _, a := range achievements {
		builder.WriteString(fmt.Sprintf("%s %s · %s\n", a.Icon, a.Title, a.UnlockedAt.Format("Jan 2, 2006")))
	}
	builder.WriteString(fmt.Sprintf("\n✅ Tasks completed: %d\n", c.planner.TotalCompleted()))
	builder.WriteString(fmt.Sprintf("🔥 Streak: %d day(s), weekly goal %d", c.planner.Streak().Count, c.planner.WeeklyGoal()))
	c.print(builder.String())
}

func (c *Console) showCelebration() {
	celebration := c.planner.Celebration()
	if !celebration.Visible {
		return
	}
	text := celebration.Message
	if celebration.Achievement != "" {
		text += "\n" + celebration.Achievement
	}
	c.print(c.box.Render(text))
	c.planner.HideCelebration()
}

func (c *Console) resolveTask(raw, command string) (model.Task, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		c.print(fmt.Sprintf("Give the task id: %s <id>", command))
		return model.Task{}, false
	}
	task, err := findTask(c.planner.Tasks(), raw)
	if err != nil {
		c.print(err.Error())
		return model.Task{}, false
	}
	return task, true
}

func (c *Console) formatTask(task model.Task) string {
	return service.FormatTaskLine(task, c.planner.Today().Location())
}

// parseDue accepts a full date and time or a clock time for today.
func (c *Console) parseDue(raw string) (time.Time, error) {
	now := c.planner.Today()
	if t, err := time.ParseInLocation(dueLayout, raw, now.Location()); err == nil {
		return t, nil
	}
	clock, err := time.ParseInLocation(clockLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	year, month, day := now.Date()
	return time.Date(year, month, day, clock.Hour(), clock.Minute(), 0, 0, now.Location()), nil
}

func (c *Console) print(text string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := fmt.Fprintln(c.out, text); err != nil {
		c.log.Warn("write output", zap.Error(err))
	}
}

func (c *Console) setConversation(state *conversationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversation = state
}

func (c *Console) hasConversation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversation != nil
}

func (c *Console) clearConversation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversation = nil
}

// findTask matches an exact id first, then a unique prefix.
func findTask(tasks []model.Task, raw string) (model.Task, error) {
	var matches []model.Task
	for _, task := range tasks {
		if task.ID == raw {
			return task, nil
		}
		if strings.HasPrefix(task.ID, raw) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("no task with id %q", raw)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("id %q matches %d tasks, type more of it", raw, len(matches))
	}
}

type field struct {
	name  string
	value string
}

// parseFields splits "a=1 b=two words" into name/value pairs. Words without
// '=' continue the previous value.
func parseFields(raw string) []field {
	var fields []field
	for _, word := range strings.Fields(raw) {
		name, value, ok := strings.Cut(word, "=")
		if ok && name != "" {
			fields = append(fields, field{name: strings.ToLower(name), value: value})
			continue
		}
		if len(fields) > 0 {
			last := &fields[len(fields)-1]
			last.value = strings.TrimSpace(last.value + " " + word)
		}
	}
	return fields
}

func parseDuration(raw string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return minutes, nil
}

func shortID(id string) string {
	runes := []rune(id)
	if len(runes) <= shortIDLen {
		return id
	}
	return string(runes[:shortIDLen])
}

func joinCategories() string {
	names := make([]string, len(model.Categories))
	for i, category := range model.Categories {
		names[i] = category.Icon() + " " + string(category)
	}
	return strings.Join(names, ", ")
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == "skip"
}
