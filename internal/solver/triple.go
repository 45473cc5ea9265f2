package solver

import (
	"iter"

	"mcp-nutrition-plan/internal/models"
)

// FindTriple searches the meal's lines for three ingredients whose quantity
// changes absorb diff exactly while staying within bounds.
//
// The three positions come from independent counters: the first runs over
// every line, the second over lines[1:] and the third over lines[2:]. They
// are not a combination generator, so one ingredient may fill more than one
// slot of a triple. Such triples give a singular system and are rejected by
// the bounds check. The first feasible triple in this order is returned.
func FindTriple(lines []models.IngredientLine, diff models.MacroVector) models.TripleResult {
	rhs := diff.Components()

	for positions := range triples(len(lines)) {
		deltas := Solve3x3(equations(lines, positions), rhs)

		if feasible(lines, positions, deltas) {
			return models.TripleResult{
				Positions: positions[:],
				Deltas:    deltas[:],
			}
		}
	}

	return models.Unsolved()
}

// triples yields candidate positions for a meal of n lines in search order.
func triples(n int) iter.Seq[[3]int] {
	return func(yield func([3]int) bool) {
		for n1 := 0; n1 < n; n1++ {
			for n2 := 0; n2 < n-1; n2++ {
				for n3 := 0; n3 < n-2; n3++ {
					if !yield([3]int{n1, n2 + 1, n3 + 2}) {
						return
					}
				}
			}
		}
	}
}

// equations builds the coefficient matrix: one row per macro (protein, fat,
// carb), one column per chosen ingredient.
func equations(lines []models.IngredientLine, positions [3]int) [3][3]float64 {
	var a [3][3]float64
	for col, pos := range positions {
		c := lines[pos].Macros().Components()
		for row := 0; row < 3; row++ {
			a[row][col] = c[row]
		}
	}
	return a
}

func feasible(lines []models.IngredientLine, positions [3]int, deltas [3]float64) bool {
	for k, pos := range positions {
		if !WithinBounds(lines[pos].Quantity, deltas[k]) {
			return false
		}
	}
	return true
}
