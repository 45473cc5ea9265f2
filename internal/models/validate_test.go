package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInputs() Inputs {
	return Inputs{
		Clients: []Client{{ID: "c1", Protein: 150, Fats: 60, Carbs: 300, Meals: 5}},
		MealSlots: []MealSlot{
			{Client: "c1", Day: "1", Name: "breakfast"},
			{Client: "c1", Day: "1", Name: "bar", Snack: true},
		},
		Ingredients: []Ingredient{
			{MealName: "breakfast", Name: "oats", Protein: 13, Fats: 7, Carbs: 66, Units: "100g", Quantity: 1},
			{MealName: "bar", Name: "protein bar", Protein: 20, Fats: 8, Carbs: 22, Units: "bar", Quantity: 1},
		},
	}
}

func TestInputsValidate(t *testing.T) {
	require.NoError(t, validInputs().Validate())
}

func TestInputsValidateRejectsBadRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Inputs)
		want   string
	}{
		{
			name:   "negative client target",
			mutate: func(in *Inputs) { in.Clients[0].Fats = -1 },
			want:   "client row 1: fats cannot be negative",
		},
		{
			name:   "zero meals",
			mutate: func(in *Inputs) { in.Clients[0].Meals = 0 },
			want:   "client row 1: meals must be positive",
		},
		{
			name:   "duplicate client",
			mutate: func(in *Inputs) { in.Clients = append(in.Clients, in.Clients[0]) },
			want:   `client row 2: duplicate client "c1"`,
		},
		{
			name:   "meal without day",
			mutate: func(in *Inputs) { in.MealSlots[0].Day = "" },
			want:   "meal row 1: day is required",
		},
		{
			name:   "negative quantity",
			mutate: func(in *Inputs) { in.Ingredients[1].Quantity = -0.5 },
			want:   "ingredient row 2: quantity cannot be negative",
		},
		{
			name:   "NaN client target",
			mutate: func(in *Inputs) { in.Clients[0].Protein = math.NaN() },
			want:   "client row 1: protein must be a finite number",
		},
		{
			name:   "infinite ingredient carbs",
			mutate: func(in *Inputs) { in.Ingredients[0].Carbs = math.Inf(1) },
			want:   "ingredient row 1: carbs must be a finite number",
		},
		{
			name:   "negative infinite quantity",
			mutate: func(in *Inputs) { in.Ingredients[1].Quantity = math.Inf(-1) },
			want:   "ingredient row 2: quantity must be a finite number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInputs()
			tt.mutate(&in)
			err := in.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInputsValidateSnackPrecondition(t *testing.T) {
	in := validInputs()
	in.Clients[0].Meals = 1

	err := in.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOrdinaryMealSlots))

	// A day made only of snacks never divides by the remaining meal count.
	in.MealSlots = in.MealSlots[1:]
	assert.NoError(t, in.Validate())
}

func TestMacroVector(t *testing.T) {
	a := MacroVector{Protein: 10, Fats: 5, Carbs: 20}
	b := MacroVector{Protein: 1, Fats: 2, Carbs: 3}

	assert.Equal(t, MacroVector{Protein: 11, Fats: 7, Carbs: 23}, a.Add(b))
	assert.Equal(t, MacroVector{Protein: 9, Fats: 3, Carbs: 17}, a.Sub(b))
	assert.Equal(t, MacroVector{Protein: 20, Fats: 10, Carbs: 40}, a.Scale(2))
	assert.Equal(t, MacroVector{Protein: 5, Fats: 2.5, Carbs: 10}, a.Div(2))
	assert.Equal(t, [3]float64{10, 5, 20}, a.Components())
}

func TestTripleResultSentinels(t *testing.T) {
	assert.False(t, Unsolved().Solved())
	assert.True(t, SnackResult().Solved())
	assert.Equal(t, []int{0}, SnackResult().Positions)
	assert.Equal(t, []float64{0}, SnackResult().Deltas)
}

func TestIngredientLineClearOutputs(t *testing.T) {
	line := NewIngredientLine(validInputs().Clients[0], "1", "1 - breakfast", validInputs().Ingredients[0])
	line.QuantityFinal = Float(1.5)
	line.TCalories = Float(100)
	require.True(t, line.Solved())

	line.ClearOutputs()
	assert.False(t, line.Solved())
	assert.Nil(t, line.TCalories)
	assert.Equal(t, "c1", line.Client)
	assert.Equal(t, 13.0, line.IProtein)
}
