package model

// Category groups tasks by area of life.
type Category string

const (
	CategoryWork       Category = "work"
	CategoryHealth     Category = "health"
	CategoryPersonal   Category = "personal"
	CategoryLearning   Category = "learning"
	CategoryCreativity Category = "creativity"
	CategoryFinance    Category = "finance"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryWork,
	CategoryHealth,
	CategoryPersonal,
	CategoryLearning,
	CategoryCreativity,
	CategoryFinance,
}

// ParseCategory accepts the lower-case category names.
func ParseCategory(raw string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

// Icon returns a short emoji used when listing tasks.
func (c Category) Icon() string {
	switch c {
	case CategoryWork:
		return "💼"
	case CategoryHealth:
		return "❤️"
	case CategoryPersonal:
		return "👤"
	case CategoryLearning:
		return "📚"
	case CategoryCreativity:
		return "🎨"
	case CategoryFinance:
		return "📈"
	default:
		return "•"
	}
}
