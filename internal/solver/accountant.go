package solver

import (
	"mcp-nutrition-plan/internal/models"
)

// ResidualTarget returns the macro target of each ordinary meal of a day:
// the client's daily target minus what the day's snacks already provide,
// shared across the meals that are not snacks.
//
// Snack macros are quantity-weighted. catalogue is the full ingredient table;
// a snack's rows are those whose meal name matches the snack's name.
//
// The caller must guarantee client.Meals > len(snacks); see
// models.ErrNoOrdinaryMealSlots.
func ResidualTarget(client models.Client, snacks []models.MealSlot, catalogue []models.Ingredient) models.MacroVector {
	var snackMacros models.MacroVector
	for _, snack := range snacks {
		for _, ing := range catalogue {
			if ing.MealName != snack.Name {
				continue
			}
			snackMacros = snackMacros.Add(ing.Macros().Scale(ing.Quantity))
		}
	}

	return client.Target().Sub(snackMacros).Div(float64(client.Meals - len(snacks)))
}

// MealBaseline returns the macro level a meal starts from before solving:
// the per-unit macros of every line with a positive quantity. Unlike
// ResidualTarget it does not weight by quantity.
func MealBaseline(lines []models.IngredientLine) models.MacroVector {
	var base models.MacroVector
	for _, l := range lines {
		if l.Quantity > 0 {
			base = base.Add(l.Macros())
		}
	}
	return base
}
