package solver

import (
	"mcp-nutrition-plan/internal/models"
)

// SolveMeal balances one meal instance against its per-meal target and fills
// in the outputs of its lines. Snack meals are never adjusted.
func SolveMeal(lines []models.IngredientLine, snack bool, target models.MacroVector) []models.IngredientLine {
	result := models.SnackResult()
	if !snack {
		result = FindTriple(lines, target.Sub(MealBaseline(lines)))
	}
	return ApplyResult(lines, result)
}
