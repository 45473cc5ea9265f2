package solver

import (
	"math"

	"mcp-nutrition-plan/internal/models"
)

// Atwater energy factors, kcal per gram.
const (
	KcalPerGramProtein = 4.0
	KcalPerGramFat     = 9.0
	KcalPerGramCarb    = 4.0
)

// ApplyResult writes a triple result onto the meal's lines and returns them.
//
// Lines named in the result get the matching delta and a final quantity
// rounded to the nearest quarter unit; every other line keeps its quantity.
// When the result is unsolved every derived field is set to nil.
func ApplyResult(lines []models.IngredientLine, result models.TripleResult) []models.IngredientLine {
	for i := range lines {
		l := &lines[i]

		if !result.Solved() {
			l.ClearOutputs()
			continue
		}

		delta, final := 0.0, l.Quantity
		for n, pos := range result.Positions {
			if pos == i {
				delta = result.Deltas[n]
				final = RoundQuarter(l.Quantity + delta)
				break
			}
		}

		protein := l.IProtein * final
		fats := l.IFats * final
		carbs := l.ICarbs * final

		l.QuantityChange = models.Float(delta)
		l.QuantityFinal = models.Float(final)
		l.TProtein = models.Float(protein)
		l.TFats = models.Float(fats)
		l.TCarbs = models.Float(carbs)
		l.TCalories = models.Float(Calories(protein, fats, carbs))
	}

	return lines
}

// RoundQuarter rounds q to the nearest multiple of 0.25.
func RoundQuarter(q float64) float64 {
	return math.Round(q*4) / 4
}

// Calories converts macro grams to kcal.
func Calories(protein, fats, carbs float64) float64 {
	return protein*KcalPerGramProtein + fats*KcalPerGramFat + carbs*KcalPerGramCarb
}
