package domain

import "strings"

// Category is an entry of the fixed quote taxonomy.
type Category struct {
	ID          string
	Name        string
	Description string
}

var categories = []Category{
	{ID: "inspiration", Name: "Inspiration", Description: "Quotes that lift and encourage"},
	{ID: "wisdom", Name: "Wisdom", Description: "Insight earned through experience"},
	{ID: "love", Name: "Love", Description: "On love, friendship and connection"},
	{ID: "life", Name: "Life", Description: "Reflections on living"},
	{ID: "humor", Name: "Humor", Description: "Wit and laughter"},
	{ID: "philosophy", Name: "Philosophy", Description: "Questions of meaning, mind and ethics"},
	{ID: "motivation", Name: "Motivation", Description: "Drive, discipline and action"},
	{ID: "success", Name: "Success", Description: "Achievement and perseverance"},
	{ID: "science", Name: "Science", Description: "Curiosity and discovery"},
	{ID: "literature", Name: "Literature", Description: "Lines from books, poems and plays"},
}

// Categories returns the taxonomy in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)

	return out
}

// FindCategory looks a category up by id, ignoring case.
func FindCategory(id string) (Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.ID, id) {
			return c, true
		}
	}

	return Category{}, false
}
