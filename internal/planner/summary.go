package planner

import (
	"mcp-nutrition-plan/internal/models"
)

// Summary counts what a planning run produced.
type Summary struct {
	Lines         int `json:"lines"`
	Meals         int `json:"meals"`
	UnsolvedMeals int `json:"unsolved_meals"`
}

// Summarize counts meal instances as runs of consecutive lines sharing
// client, day and meal label.
func Summarize(lines []models.IngredientLine) Summary {
	s := Summary{Lines: len(lines)}

	for i, l := range lines {
		if i > 0 && sameMeal(lines[i-1], l) {
			continue
		}
		s.Meals++
		if !l.Solved() {
			s.UnsolvedMeals++
		}
	}

	return s
}

func sameMeal(a, b models.IngredientLine) bool {
	return a.Client == b.Client && a.Day == b.Day && a.MealName == b.MealName
}
