package messages

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed messages.toml
var defaultTable []byte

// ErrUnknownAchievement is returned for achievement keys missing from the table.
var ErrUnknownAchievement = errors.New("unknown achievement key")

// Category names a list of interchangeable messages.
type Category string

const (
	TaskCompleted Category = "taskCompleted"
	FirstTask     Category = "firstTask"
	Streak        Category = "streakMessages"
	DailyGoal     Category = "dailyGoals"
	Encouragement Category = "encouragement"
)

// AchievementKey identifies a fixed achievement text.
type AchievementKey string

const (
	AchievementFirstTask      AchievementKey = "firstTask"
	AchievementFirstWeek      AchievementKey = "firstWeek"
	AchievementFirstMonth     AchievementKey = "firstMonth"
	AchievementTaskMaster     AchievementKey = "taskMaster"
	AchievementEarlyBird      AchievementKey = "earlyBird"
	AchievementNightOwl       AchievementKey = "nightOwl"
	AchievementWeekendWarrior AchievementKey = "weekendWarrior"
	AchievementStreakKeeper   AchievementKey = "streakKeeper"
	AchievementGoalCrusher    AchievementKey = "goalCrusher"
)

const countToken = "{count}"

type table struct {
	TaskCompleted  []string          `toml:"taskCompleted"`
	FirstTask      []string          `toml:"firstTask"`
	StreakMessages []string          `toml:"streakMessages"`
	DailyGoals     []string          `toml:"dailyGoals"`
	Encouragement  []string          `toml:"encouragement"`
	Achievements   map[string]string `toml:"achievements"`
}

// Provider looks up motivational texts. It holds no mutable state besides
// the random source, which must be safe for concurrent use.
type Provider struct {
	lists        map[Category][]string
	achievements map[AchievementKey]string
	intn         func(n int) int
}

// Option configures a Provider.
type Option func(*Provider)

// WithIntn replaces the random index source, mainly for tests.
func WithIntn(intn func(n int) int) Option {
	return func(p *Provider) { p.intn = intn }
}

// Default returns a provider backed by the embedded table.
func Default(opts ...Option) *Provider {
	p, err := Parse(defaultTable, opts...)
	if err != nil {
		// The embedded table is part of the binary; failing here is a build defect.
		panic(fmt.Sprintf("messages: embedded table: %v", err))
	}
	return p
}

// LoadFile reads a TOML table from path.
func LoadFile(path string, opts ...Option) (*Provider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read messages file %q: %w", path, err)
	}
	return Parse(raw, opts...)
}

// Parse builds a provider from a TOML document.
func Parse(raw []byte, opts ...Option) (*Provider, error) {
	var t table
	if err := toml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse messages: %w", err)
	}

	p := &Provider{
		lists: map[Category][]string{
			TaskCompleted: t.TaskCompleted,
			FirstTask:     t.FirstTask,
			Streak:        t.StreakMessages,
			DailyGoal:     t.DailyGoals,
			Encouragement: t.Encouragement,
		},
		achievements: make(map[AchievementKey]string, len(t.Achievements)),
		intn:         rand.Intn,
	}
	for k, v := range t.Achievements {
		p.achievements[AchievementKey(k)] = v
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Random returns one entry of category chosen uniformly, or "" when the
// category is unknown or empty.
func (p *Provider) Random(category Category) string {
	list := p.lists[category]
	if len(list) == 0 {
		return ""
	}
	return list[p.intn(len(list))]
}

// StreakMessage picks a streak template and fills in count.
func (p *Provider) StreakMessage(count int) string {
	return strings.ReplaceAll(p.Random(Streak), countToken, strconv.Itoa(count))
}

// Achievement returns the fixed text for key.
func (p *Provider) Achievement(key AchievementKey) (string, error) {
	text, ok := p.achievements[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAchievement, key)
	}
	return text, nil
}
