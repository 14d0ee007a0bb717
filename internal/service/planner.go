package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"easin-planner/internal/messages"
	"easin-planner/internal/model"
)

// DefaultKeyPrefix namespaces every persisted key.
const DefaultKeyPrefix = "@EasinDailyPlanner_"

const (
	defaultWeeklyGoal = 5
	taskMasterTotal   = 50
	crowdedDayTasks   = 5
	timelineFirstHour = 6
	timelineLastHour  = 22
)

// Suggestion texts, in policy order.
const (
	SuggestAddFirstTask  = "Add your first task to get started with your day!"
	SuggestStartPriority = "Start with your highest priority task to build momentum!"
	SuggestHighEnergy    = "Perfect time for high-energy tasks! Tackle them now."
	SuggestDeferSome     = "You have a lot on your plate. Consider moving some tasks to tomorrow."
)

// Keys are the persisted key names for one prefix.
type Keys struct {
	Tasks          string
	Onboarding     string
	Streak         string
	MorningKickoff string
	Reflection     string
	Achievements   string
	TotalTasks     string
}

// NewKeys builds the key set for prefix.
func NewKeys(prefix string) Keys {
	return Keys{
		Tasks:          prefix + "tasks",
		Onboarding:     prefix + "onboarding",
		Streak:         prefix + "streak",
		MorningKickoff: prefix + "morningKickoff",
		Reflection:     prefix + "reflection",
		Achievements:   prefix + "achievements",
		TotalTasks:     prefix + "totalTasks",
	}
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title             string
	DueDate           *time.Time
	Category          model.Category
	EnergyLevel       model.EnergyLevel
	EstimatedDuration int
	Priority          model.Priority
	Description       string
}

// TaskUpdate holds the fields to merge into a task; nil fields are left
// untouched. Completion is changed only through ToggleTask.
type TaskUpdate struct {
	Title             *string
	DueDate           *time.Time
	ClearDueDate      bool
	Category          *model.Category
	EnergyLevel       *model.EnergyLevel
	EstimatedDuration *int
	Priority          *model.Priority
	Description       *string
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PlannerOption {
	return func(p *Planner) { p.now = now }
}

// WithKeyPrefix changes the persisted key namespace.
func WithKeyPrefix(prefix string) PlannerOption {
	return func(p *Planner) { p.keys = NewKeys(prefix) }
}

// WithIDGenerator replaces the task identifier source.
func WithIDGenerator(newID func() string) PlannerOption {
	return func(p *Planner) { p.newID = newID }
}

// Planner is the single source of truth for tasks and the signals derived
// from them. All methods are safe for concurrent use; persistence goes
// through the Persister and never blocks a caller.
type Planner struct {
	store     Store
	persister *Persister
	msgs      *messages.Provider
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
	keys      Keys

	mu           sync.Mutex
	loading      bool
	tasks        []model.Task
	onboarded    bool
	kickoff      *string
	reflection   *string
	total        int
	achievements []model.Achievement
	streak       model.Streak
	celebration  model.Celebration
}

func NewPlanner(store Store, persister *Persister, msgs *messages.Provider, log *zap.Logger, opts ...PlannerOption) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Planner{
		store:     store,
		persister: persister,
		msgs:      msgs,
		log:       log.Named("planner"),
		now:       time.Now,
		newID:     uuid.NewString,
		keys:      NewKeys(DefaultKeyPrefix),
		loading:   true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize loads persisted state. Read and decode failures are logged and
// treated as absent data. Loading reports false once it returns.
func (p *Planner) Initialize(ctx context.Context) {
	tasks, tasksFound := p.loadTasks(ctx)

	var onboarded bool
	onboardedFound := p.loadJSON(ctx, p.keys.Onboarding, &onboarded)

	total := 0
	if raw, ok := p.loadString(ctx, p.keys.TotalTasks); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			p.log.Warn("discard malformed total", zap.String("key", p.keys.TotalTasks), zap.String("value", raw))
		} else {
			total = n
		}
	}

	var achievements []model.Achievement
	p.loadJSON(ctx, p.keys.Achievements, &achievements)

	var streak model.Streak
	p.loadJSON(ctx, p.keys.Streak, &streak)

	kickoff, kickoffFound := p.loadString(ctx, p.keys.MorningKickoff)
	reflection, reflectionFound := p.loadString(ctx, p.keys.Reflection)

	p.mu.Lock()
	defer p.mu.Unlock()

	if tasksFound {
		p.tasks = tasks
	}
	if onboardedFound {
		p.onboarded = p.onboarded || onboarded
	}
	if total > p.total {
		p.total = total
	}
	if len(achievements) > 0 {
		p.achievements = mergeAchievements(achievements, p.achievements)
	}
	if streak.Count > 0 {
		p.streak = streak
	}
	if kickoffFound && p.kickoff == nil {
		p.kickoff = &kickoff
	}
	if reflectionFound && p.reflection == nil {
		p.reflection = &reflection
	}
	p.loading = false

	p.log.Info("state loaded",
		zap.Int("tasks", len(p.tasks)),
		zap.Bool("onboarded", p.onboarded),
		zap.Int("total_completed", p.total),
	)
}

// Loading reports whether Initialize has not finished yet.
func (p *Planner) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Today returns the planner's current time.
func (p *Planner) Today() time.Time {
	return p.now()
}

// AddTask appends a new incomplete task and returns it.
func (p *Planner) AddTask(input TaskInput) model.Task {
	task := model.Task{
		ID:                p.newID(),
		Title:             input.Title,
		Completed:         false,
		DueDate:           cloneTime(input.DueDate),
		Category:          input.Category,
		EnergyLevel:       input.EnergyLevel,
		EstimatedDuration: input.EstimatedDuration,
		Priority:          input.Priority,
		Description:       input.Description,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tasks = append(p.tasks, task)
	p.saveTasksLocked()
	p.log.Debug("task added", zap.String("id", task.ID))
	return cloneTask(task)
}

// UpdateTask merges upd into the task with id. It reports false, and changes
// nothing, when no such task exists.
func (p *Planner) UpdateTask(id string, upd TaskUpdate) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexLocked(id)
	if i < 0 {
		return false
	}
	t := &p.tasks[i]
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.ClearDueDate {
		t.DueDate = nil
	} else if upd.DueDate != nil {
		t.DueDate = cloneTime(upd.DueDate)
	}
	if upd.Category != nil {
		t.Category = *upd.Category
	}
	if upd.EnergyLevel != nil {
		t.EnergyLevel = *upd.EnergyLevel
	}
	if upd.EstimatedDuration != nil {
		t.EstimatedDuration = *upd.EstimatedDuration
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}

	p.saveTasksLocked()
	return true
}

// DeleteTask removes the task with id; unknown ids are ignored.
func (p *Planner) DeleteTask(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexLocked(id)
	if i < 0 {
		return false
	}
	p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
	p.saveTasksLocked()
	return true
}

// ToggleTask flips completion of the task with id. A task's first completion
// counts toward the lifetime total and may unlock an achievement; every
// completion raises a celebration.
func (p *Planner) ToggleTask(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexLocked(id)
	if i < 0 {
		return false
	}
	t := &p.tasks[i]
	t.Completed = !t.Completed

	switch {
	case t.Completed && !t.EverCompleted:
		t.EverCompleted = true
		p.total++
		p.recordCompletionLocked()
	case t.Completed:
		p.celebrateLocked(p.msgs.Random(messages.TaskCompleted), "")
	}

	p.saveTasksLocked()
	return true
}

func (p *Planner) recordCompletionLocked() {
	now := p.now()
	p.bumpStreakLocked(now)

	switch p.total {
	case 1:
		// The first completion gets its own achievement rather than the
		// week-streak text, which is reserved for an actual 7-day streak.
		label := p.unlockLocked(messages.AchievementFirstTask, now)
		p.celebrateLocked(p.msgs.Random(messages.FirstTask), label)
	case taskMasterTotal:
		label := p.unlockLocked(messages.AchievementTaskMaster, now)
		p.celebrateLocked(p.msgs.Random(messages.TaskCompleted), label)
	default:
		p.celebrateLocked(p.msgs.Random(messages.TaskCompleted), "")
	}

	// Streak milestones are recorded without taking over the celebration.
	if key, ok := streakMilestones[p.streak.Count]; ok {
		p.unlockLocked(key, now)
	}

	p.saveCountersLocked()
}

func (p *Planner) bumpStreakLocked(now time.Time) {
	today := now.Format(model.DayLayout)
	yesterday := now.AddDate(0, 0, -1).Format(model.DayLayout)

	switch p.streak.LastDay {
	case today:
		return
	case yesterday:
		p.streak.Count++
	default:
		p.streak.Count = 1
	}
	p.streak.LastDay = today
}

// CompleteOnboarding marks first-run setup as done.
func (p *Planner) CompleteOnboarding() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onboarded = true
	p.persister.Enqueue(p.keys.Onboarding, "true")
}

func (p *Planner) HasCompletedOnboarding() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onboarded
}

// SetMorningKickoff stores today's top priority, replacing any previous one.
func (p *Planner) SetMorningKickoff(goal string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.kickoff = &goal
	p.persister.Enqueue(p.keys.MorningKickoff, goal)
}

// MorningKickoff returns the stored goal; ok is false when none was set.
func (p *Planner) MorningKickoff() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.kickoff == nil {
		return "", false
	}
	return *p.kickoff, true
}

// SetEndOfDayReflection stores the evening reflection, replacing any previous one.
func (p *Planner) SetEndOfDayReflection(reflection string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reflection = &reflection
	p.persister.Enqueue(p.keys.Reflection, reflection)
}

func (p *Planner) EndOfDayReflection() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reflection == nil {
		return "", false
	}
	return *p.reflection, true
}

// Tasks returns a copy of every task in insertion order.
func (p *Planner) Tasks() []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.Task, len(p.tasks))
	for i, t := range p.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// Task returns a copy of the task with id.
func (p *Planner) Task(id string) (model.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexLocked(id)
	if i < 0 {
		return model.Task{}, false
	}
	return cloneTask(p.tasks[i]), true
}

// TodaysTasks returns tasks due on the current calendar day, ordered by due time.
func (p *Planner) TodaysTasks() []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.todaysLocked(p.now())
}

// CompletedToday counts completed tasks due today.
func (p *Planner) CompletedToday() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return countCompleted(p.todaysLocked(p.now()))
}

// Progress summarizes today's tasks.
func (p *Planner) Progress() model.Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.todaysLocked(p.now())
	progress := model.Progress{Completed: countCompleted(today), Total: len(today)}
	if progress.Total > 0 {
		progress.Percent = float64(progress.Completed) / float64(progress.Total) * 100
	}
	return progress
}

// Timeline buckets today's tasks into hourly slots from 06:00 to 22:00.
// Tasks due outside that range are not part of any slot.
func (p *Planner) Timeline() []model.TimeSlot {
	p.mu.Lock()
	now := p.now()
	today := p.todaysLocked(now)
	p.mu.Unlock()

	slots := make([]model.TimeSlot, 0, timelineLastHour-timelineFirstHour+1)
	for hour := timelineFirstHour; hour <= timelineLastHour; hour++ {
		slot := model.TimeSlot{Hour: hour, Label: fmt.Sprintf("%02d:00", hour)}
		for _, t := range today {
			if t.DueDate.In(now.Location()).Hour() == hour {
				slot.Tasks = append(slot.Tasks, t)
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

// NextTask picks the incomplete task due today with the highest priority,
// earliest due time first among equals.
func (p *Planner) NextTask() (model.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		best  model.Task
		found bool
	)
	for _, t := range p.todaysLocked(p.now()) {
		if t.Completed {
			continue
		}
		if !found || t.Priority.Rank() < best.Priority.Rank() {
			best, found = t, true
		}
	}
	return best, found
}

// SmartSuggestions returns at most one hint for today's plan.
func (p *Planner) SmartSuggestions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.todaysLocked(p.now())
	switch {
	case len(today) == 0:
		return []string{SuggestAddFirstTask}
	case countCompleted(today) == 0:
		return []string{SuggestStartPriority}
	case hasEnergy(today, model.EnergyHigh):
		return []string{SuggestHighEnergy}
	case len(today) > crowdedDayTasks:
		return []string{SuggestDeferSome}
	default:
		return nil
	}
}

// TriggerCelebration shows a celebration, replacing any visible one. An
// empty message picks a random completion message.
func (p *Planner) TriggerCelebration(message, achievement string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.celebrateLocked(message, achievement)
}

// HideCelebration clears the celebration.
func (p *Planner) HideCelebration() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.celebration = model.Celebration{}
}

func (p *Planner) Celebration() model.Celebration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.celebration
}

// MotivationalMessage returns a random encouragement.
func (p *Planner) MotivationalMessage() string {
	return p.msgs.Random(messages.Encouragement)
}

// TotalCompleted is the lifetime number of counted completions.
func (p *Planner) TotalCompleted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func (p *Planner) Achievements() []model.Achievement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Achievement(nil), p.achievements...)
}

// Streak returns the current streak. A streak whose last day is neither today
// nor yesterday has ended and reports a zero count.
func (p *Planner) Streak() model.Streak {
	p.mu.Lock()
	defer p.mu.Unlock()

	streak := p.streak
	now := p.now()
	if streak.LastDay != now.Format(model.DayLayout) && streak.LastDay != now.AddDate(0, 0, -1).Format(model.DayLayout) {
		streak.Count = 0
	}
	return streak
}

// WeeklyGoal is the target number of active days per week.
func (p *Planner) WeeklyGoal() int {
	return defaultWeeklyGoal
}

// Flush waits until every change made so far has been handed to the store.
func (p *Planner) Flush(ctx context.Context) error {
	return p.persister.Flush(ctx)
}

// Close writes pending changes and stops the persister.
func (p *Planner) Close(ctx context.Context) error {
	return p.persister.Close(ctx)
}

func (p *Planner) celebrateLocked(message, achievement string) {
	if message == "" {
		message = p.msgs.Random(messages.TaskCompleted)
	}
	p.celebration = model.Celebration{Visible: true, Message: message, Achievement: achievement}
}

func (p *Planner) indexLocked(id string) int {
	for i := range p.tasks {
		if p.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Planner) todaysLocked(now time.Time) []model.Task {
	var today []model.Task
	for _, t := range p.tasks {
		if t.DueOn(now) {
			today = append(today, cloneTask(t))
		}
	}
	sort.SliceStable(today, func(i, j int) bool {
		return today[i].DueDate.Before(*today[j].DueDate)
	})
	return today
}

func (p *Planner) saveTasksLocked() {
	if p.loading {
		return
	}
	tasks := p.tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	p.enqueueJSONLocked(p.keys.Tasks, tasks)
}

func (p *Planner) saveCountersLocked() {
	if p.loading {
		return
	}
	p.persister.Enqueue(p.keys.TotalTasks, strconv.Itoa(p.total))
	p.enqueueJSONLocked(p.keys.Streak, p.streak)
	if len(p.achievements) > 0 {
		p.enqueueJSONLocked(p.keys.Achievements, p.achievements)
	}
}

func (p *Planner) enqueueJSONLocked(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		p.log.Error("encode item", zap.String("key", key), zap.Error(err))
		return
	}
	p.persister.Enqueue(key, string(raw))
}

func (p *Planner) loadString(ctx context.Context, key string) (string, bool) {
	value, found, err := p.store.GetItem(ctx, key)
	if err != nil {
		p.log.Warn("load item", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return value, found
}

func (p *Planner) loadJSON(ctx context.Context, key string, dst any) bool {
	raw, ok := p.loadString(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		p.log.Warn("discard malformed item", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (p *Planner) loadTasks(ctx context.Context) ([]model.Task, bool) {
	var stored []model.Task
	if !p.loadJSON(ctx, p.keys.Tasks, &stored) {
		return nil, false
	}

	seen := make(map[string]struct{}, len(stored))
	tasks := make([]model.Task, 0, len(stored))
	for _, t := range stored {
		if _, dup := seen[t.ID]; dup {
			p.log.Warn("skip duplicate task id", zap.String("id", t.ID))
			continue
		}
		seen[t.ID] = struct{}{}
		tasks = append(tasks, t)
	}
	return tasks, true
}

// mergeAchievements keeps every stored achievement and appends the ones
// unlocked in memory that are not stored yet.
func mergeAchievements(stored, unlocked []model.Achievement) []model.Achievement {
	seen := make(map[string]struct{}, len(stored)+len(unlocked))
	merged := make([]model.Achievement, 0, len(stored)+len(unlocked))
	for _, list := range [][]model.Achievement{stored, unlocked} {
		for _, a := range list {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			merged = append(merged, a)
		}
	}
	return merged
}

func countCompleted(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

func hasEnergy(tasks []model.Task, level model.EnergyLevel) bool {
	for _, t := range tasks {
		if t.EnergyLevel == level {
			return true
		}
	}
	return false
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneTask(t model.Task) model.Task {
	t.DueDate = cloneTime(t.DueDate)
	return t
}
