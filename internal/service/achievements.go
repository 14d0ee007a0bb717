package service

import (
	"time"

	"go.uber.org/zap"

	"easin-planner/internal/messages"
	"easin-planner/internal/model"
)

type achievementMeta struct {
	title string
	icon  string
}

var achievementCatalog = map[messages.AchievementKey]achievementMeta{
	messages.AchievementFirstTask:    {title: "First Step", icon: "🏅"},
	messages.AchievementTaskMaster:   {title: "Task Master", icon: "🎯"},
	messages.AchievementFirstWeek:    {title: "Week Warrior", icon: "🏆"},
	messages.AchievementStreakKeeper: {title: "Streak Keeper", icon: "🔥"},
	messages.AchievementFirstMonth:   {title: "Monthly Master", icon: "👑"},
}

// streakMilestones maps a streak length to the achievement it unlocks.
var streakMilestones = map[int]messages.AchievementKey{
	7:  messages.AchievementFirstWeek,
	10: messages.AchievementStreakKeeper,
	30: messages.AchievementFirstMonth,
}

// unlockLocked appends the achievement for key unless it is already unlocked
// and returns its text for use as a celebration label.
func (p *Planner) unlockLocked(key messages.AchievementKey, now time.Time) string {
	text, err := p.msgs.Achievement(key)
	if err != nil {
		p.log.Warn("achievement text missing, using key", zap.Error(err))
		text = string(key)
	}

	for _, a := range p.achievements {
		if a.ID == string(key) {
			return text
		}
	}

	meta, ok := achievementCatalog[key]
	if !ok {
		meta = achievementMeta{title: string(key), icon: "⭐"}
	}
	p.achievements = append(p.achievements, model.Achievement{
		ID:          string(key),
		Title:       meta.title,
		Description: text,
		UnlockedAt:  now,
		Icon:        meta.icon,
	})
	p.log.Info("achievement unlocked", zap.String("id", string(key)))
	return text
}
