package model

// Category groups tasks by area. Names are stored lowercase and are unique.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

const (
	// Uncategorized is the sentinel tasks fall back to when their category
	// is deleted. It is never stored as a Category record.
	Uncategorized = "uncategorized"

	// CategoryAll is the pseudo-category meaning "no category filter".
	CategoryAll = "all"
)

// DefaultCategories seeds a fresh board.
func DefaultCategories() []Category {
	return []Category{
		{Name: "work", Color: "#ff4444"},
		{Name: "personal", Color: "#4444ff"},
		{Name: "shopping", Color: "#44ff44"},
	}
}

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)
