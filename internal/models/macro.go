package models

// MacroVector is a (protein, fat, carb) triple in grams.
type MacroVector struct {
	Protein float64 `json:"protein"`
	Fats    float64 `json:"fats"`
	Carbs   float64 `json:"carbs"`
}

// Add returns m + o component-wise.
func (m MacroVector) Add(o MacroVector) MacroVector {
	return MacroVector{Protein: m.Protein + o.Protein, Fats: m.Fats + o.Fats, Carbs: m.Carbs + o.Carbs}
}

// Sub returns m - o component-wise.
func (m MacroVector) Sub(o MacroVector) MacroVector {
	return MacroVector{Protein: m.Protein - o.Protein, Fats: m.Fats - o.Fats, Carbs: m.Carbs - o.Carbs}
}

// Scale returns m multiplied by f.
func (m MacroVector) Scale(f float64) MacroVector {
	return MacroVector{Protein: m.Protein * f, Fats: m.Fats * f, Carbs: m.Carbs * f}
}

// Div returns m divided by d. A zero divisor yields Inf/NaN components.
func (m MacroVector) Div(d float64) MacroVector {
	return MacroVector{Protein: m.Protein / d, Fats: m.Fats / d, Carbs: m.Carbs / d}
}

// Components returns the vector in protein, fat, carb order.
func (m MacroVector) Components() [3]float64 {
	return [3]float64{m.Protein, m.Fats, m.Carbs}
}

// TripleResult is the outcome of the ingredient triple search.
// An empty Positions slice means the meal is unsolved.
type TripleResult struct {
	Positions []int     `json:"positions"`
	Deltas    []float64 `json:"qty_changes"`
}

// Solved reports whether the result carries a solution.
func (r TripleResult) Solved() bool {
	return len(r.Positions) > 0
}

// Unsolved returns the sentinel result for a meal with no feasible triple.
func Unsolved() TripleResult {
	return TripleResult{Positions: []int{}, Deltas: []float64{}}
}

// SnackResult returns the already-solved result applied to snack meals:
// no quantity change for any ingredient.
func SnackResult() TripleResult {
	return TripleResult{Positions: []int{0}, Deltas: []float64{0}}
}
