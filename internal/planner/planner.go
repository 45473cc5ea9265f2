// Package planner turns clients, meal slots and the ingredient catalogue into
// a quantified nutrition plan, one solved meal instance at a time.
package planner

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"mcp-nutrition-plan/internal/models"
	"mcp-nutrition-plan/internal/solver"
)

var ErrClientNotFound = errors.New("client not found")

type Planner struct {
	workers int
}

type Option func(*Planner)

// WithWorkers sets how many clients are solved concurrently. Values below 1
// mean one at a time. The output order does not depend on it.
func WithWorkers(n int) Option {
	return func(p *Planner) {
		if n < 1 {
			n = 1
		}
		p.workers = n
	}
}

func New(opts ...Option) *Planner {
	p := &Planner{workers: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Solve validates the inputs and returns one line per ingredient per meal
// instance, clients in input order and each client's meals grouped by day.
// Unsolvable meals are returned with nil outputs.
func (p *Planner) Solve(ctx context.Context, in models.Inputs) ([]models.IngredientLine, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inputs: %w", err)
	}

	byMeal := catalogueByMeal(in.Ingredients)
	perClient := make([][]models.IngredientLine, len(in.Clients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, client := range in.Clients {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perClient[i] = solveClient(client, slotsOf(in.MealSlots, client.ID), in.Ingredients, byMeal)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lines []models.IngredientLine
	for _, l := range perClient {
		lines = append(lines, l...)
	}
	return lines, nil
}

func solveClient(client models.Client, slots []models.MealSlot, catalogue []models.Ingredient, byMeal map[string][]models.Ingredient) []models.IngredientLine {
	var (
		lines   []models.IngredientLine
		counter mealCounter
	)

	slots = groupByDay(slots)
	for _, slot := range slots {
		counter = counter.next(slot.Day)

		target := solver.ResidualTarget(client, snacksOf(slots, slot.Day), catalogue)
		meal := buildMeal(client, slot, counter.number, byMeal[slot.Name])

		lines = append(lines, solver.SolveMeal(meal, slot.Snack, target)...)
	}

	return lines
}

// buildMeal creates fresh working lines for one meal instance.
func buildMeal(client models.Client, slot models.MealSlot, number int, ingredients []models.Ingredient) []models.IngredientLine {
	label := MealLabel(number, slot.Name)
	lines := make([]models.IngredientLine, 0, len(ingredients))
	for _, ing := range ingredients {
		lines = append(lines, models.NewIngredientLine(client, slot.Day, label, ing))
	}
	return lines
}

// MealTarget returns the residual per-meal target of a client's ordinary
// meals on the given day.
func MealTarget(in models.Inputs, clientID, day string) (models.MacroVector, error) {
	var client *models.Client
	for i := range in.Clients {
		if in.Clients[i].ID == clientID {
			client = &in.Clients[i]
			break
		}
	}
	if client == nil {
		return models.MacroVector{}, fmt.Errorf("%w: %q", ErrClientNotFound, clientID)
	}

	snacks := snacksOf(slotsOf(in.MealSlots, clientID), day)
	if client.Meals-len(snacks) <= 0 {
		return models.MacroVector{}, fmt.Errorf("client %q day %q: %w", clientID, day, models.ErrNoOrdinaryMealSlots)
	}

	return solver.ResidualTarget(*client, snacks, in.Ingredients), nil
}

func slotsOf(slots []models.MealSlot, clientID string) []models.MealSlot {
	var out []models.MealSlot
	for _, s := range slots {
		if s.Client == clientID {
			out = append(out, s)
		}
	}
	return out
}

func catalogueByMeal(ingredients []models.Ingredient) map[string][]models.Ingredient {
	byMeal := make(map[string][]models.Ingredient)
	for _, ing := range ingredients {
		byMeal[ing.MealName] = append(byMeal[ing.MealName], ing)
	}
	return byMeal
}
