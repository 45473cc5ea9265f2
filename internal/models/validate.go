package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoOrdinaryMealSlots is returned when a client's day has ordinary meals
// but every one of the client's meals is already taken by snacks, which would
// make the per-meal residual target divide by zero.
var ErrNoOrdinaryMealSlots = errors.New("no ordinary meals left after snacks")

func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateNutrientValue checks if the nutrient value is finite and non-negative
func ValidateNutrientValue(value float64, fieldName string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s must be a finite number", fieldName)
	}
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	return nil
}

func ValidateMealCount(meals int) error {
	if meals <= 0 {
		return fmt.Errorf("meals must be positive")
	}
	return nil
}

func ValidateClient(c Client) error {
	if err := ValidateID(c.ID, "client"); err != nil {
		return err
	}
	if err := ValidateNutrientValue(c.Protein, "protein"); err != nil {
		return err
	}
	if err := ValidateNutrientValue(c.Fats, "fats"); err != nil {
		return err
	}
	if err := ValidateNutrientValue(c.Carbs, "carbs"); err != nil {
		return err
	}
	if err := ValidateMealCount(c.Meals); err != nil {
		return err
	}
	return nil
}

func ValidateMealSlot(m MealSlot) error {
	if err := ValidateID(m.Client, "client"); err != nil {
		return err
	}
	if err := ValidateID(m.Day, "day"); err != nil {
		return err
	}
	if err := ValidateID(m.Name, "meal name"); err != nil {
		return err
	}
	return nil
}

func ValidateIngredient(i Ingredient) error {
	if err := ValidateID(i.MealName, "meal name"); err != nil {
		return err
	}
	if err := ValidateID(i.Name, "ingredient"); err != nil {
		return err
	}
	if err := ValidateNutrientValue(i.Protein, "protein"); err != nil {
		return err
	}
	if err := ValidateNutrientValue(i.Fats, "fats"); err != nil {
		return err
	}
	if err := ValidateNutrientValue(i.Carbs, "carbs"); err != nil {
		return err
	}
	if err := ValidateNutrientValue(i.Quantity, "quantity"); err != nil {
		return err
	}
	return nil
}

// Validate checks every row and the per-day snack precondition. All problems
// are reported together.
func (in Inputs) Validate() error {
	var errs []error

	clients := make(map[string]Client, len(in.Clients))
	for i, c := range in.Clients {
		if err := ValidateClient(c); err != nil {
			errs = append(errs, fmt.Errorf("client row %d: %w", i+1, err))
			continue
		}
		if _, dup := clients[c.ID]; dup {
			errs = append(errs, fmt.Errorf("client row %d: duplicate client %q", i+1, c.ID))
			continue
		}
		clients[c.ID] = c
	}

	type dayKey struct{ client, day string }
	snacks := make(map[dayKey]int)
	ordinary := make(map[dayKey]bool)
	var days []dayKey

	for i, m := range in.MealSlots {
		if err := ValidateMealSlot(m); err != nil {
			errs = append(errs, fmt.Errorf("meal row %d: %w", i+1, err))
			continue
		}
		key := dayKey{m.Client, m.Day}
		if _, seen := snacks[key]; !seen {
			days = append(days, key)
			snacks[key] = 0
		}
		if m.Snack {
			snacks[key]++
		} else {
			ordinary[key] = true
		}
	}

	for i, ing := range in.Ingredients {
		if err := ValidateIngredient(ing); err != nil {
			errs = append(errs, fmt.Errorf("ingredient row %d: %w", i+1, err))
		}
	}

	for _, key := range days {
		c, ok := clients[key.client]
		if !ok || !ordinary[key] {
			continue
		}
		if c.Meals-snacks[key] <= 0 {
			errs = append(errs, fmt.Errorf("client %q day %q: %d meals, %d snacks: %w",
				key.client, key.day, c.Meals, snacks[key], ErrNoOrdinaryMealSlots))
		}
	}

	return errors.Join(errs...)
}
