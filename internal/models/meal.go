// internal/models/meal.go
package models

import "time"

// Client holds the daily macro targets of one client.
type Client struct {
	ID      string  `json:"client"`
	Protein float64 `json:"protein"`
	Fats    float64 `json:"fats"`
	Carbs   float64 `json:"carbs"`
	Meals   int     `json:"meals"`
}

// Target returns the client's daily macro target.
func (c Client) Target() MacroVector {
	return MacroVector{Protein: c.Protein, Fats: c.Fats, Carbs: c.Carbs}
}

// MealSlot is one meal a client eats on a given day.
type MealSlot struct {
	Client string `json:"client"`
	Day    string `json:"day"`
	Name   string `json:"meal_name"`
	Snack  bool   `json:"snack"`
}

// Ingredient is a catalogue row. It belongs to every meal slot with the same name.
type Ingredient struct {
	MealName string  `json:"meal_name"`
	Name     string  `json:"ingredient"`
	Protein  float64 `json:"protein"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
	Units    string  `json:"units"`
	Quantity float64 `json:"quantity"`
}

// Macros returns the per-unit macros of the ingredient.
func (i Ingredient) Macros() MacroVector {
	return MacroVector{Protein: i.Protein, Fats: i.Fats, Carbs: i.Carbs}
}

// IngredientLine is the working row for one ingredient of one meal instance.
// The solver outputs are nil when the meal could not be solved.
type IngredientLine struct {
	Client        string  `json:"client"`
	ClientProtein float64 `json:"protein"`
	ClientFats    float64 `json:"fats"`
	ClientCarbs   float64 `json:"carbs"`
	ClientMeals   int     `json:"meals"`

	Day      string `json:"day"`
	MealName string `json:"meal_name"`

	Ingredient string  `json:"ingredient"`
	IProtein   float64 `json:"i_protein"`
	IFats      float64 `json:"i_fats"`
	ICarbs     float64 `json:"i_carbs"`
	Units      string  `json:"units"`
	Quantity   float64 `json:"quantity"`

	QuantityChange *float64 `json:"quantity_changes"`
	QuantityFinal  *float64 `json:"quantity_final"`
	TProtein       *float64 `json:"t_protein"`
	TFats          *float64 `json:"t_fats"`
	TCarbs         *float64 `json:"t_carbs"`
	TCalories      *float64 `json:"t_calories"`
}

// NewIngredientLine creates a fresh working row for a meal instance.
func NewIngredientLine(client Client, day, mealName string, ing Ingredient) IngredientLine {
	return IngredientLine{
		Client:        client.ID,
		ClientProtein: client.Protein,
		ClientFats:    client.Fats,
		ClientCarbs:   client.Carbs,
		ClientMeals:   client.Meals,
		Day:           day,
		MealName:      mealName,
		Ingredient:    ing.Name,
		IProtein:      ing.Protein,
		IFats:         ing.Fats,
		ICarbs:        ing.Carbs,
		Units:         ing.Units,
		Quantity:      ing.Quantity,
	}
}

// Macros returns the per-unit macros of the line's ingredient.
func (l IngredientLine) Macros() MacroVector {
	return MacroVector{Protein: l.IProtein, Fats: l.IFats, Carbs: l.ICarbs}
}

// Solved reports whether the solver produced numbers for this line.
func (l IngredientLine) Solved() bool {
	return l.QuantityFinal != nil
}

// ClearOutputs sets every derived field to the null marker.
func (l *IngredientLine) ClearOutputs() {
	l.QuantityChange = nil
	l.QuantityFinal = nil
	l.TProtein = nil
	l.TFats = nil
	l.TCarbs = nil
	l.TCalories = nil
}

// Inputs is the full set of rows a planning run operates on.
type Inputs struct {
	Clients     []Client     `json:"clients"`
	MealSlots   []MealSlot   `json:"meal_slots"`
	Ingredients []Ingredient `json:"ingredients"`
}

// PlanRun describes one stored planning run.
type PlanRun struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Lines         int       `json:"lines"`
	Meals         int       `json:"meals"`
	UnsolvedMeals int       `json:"unsolved_meals"`
}

// Float returns a pointer to v, for populating nullable fields.
func Float(v float64) *float64 {
	return &v
}
