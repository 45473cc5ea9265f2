package planner

import (
	"fmt"

	"mcp-nutrition-plan/internal/models"
)

// mealCounter numbers a client's meals within each day. It is folded over the
// client's meal slots in order: the count restarts at 1 whenever the day
// changes.
type mealCounter struct {
	number  int
	prevDay string
}

func (c mealCounter) next(day string) mealCounter {
	if c.number == 0 || day != c.prevDay {
		return mealCounter{number: 1, prevDay: day}
	}
	return mealCounter{number: c.number + 1, prevDay: day}
}

// MealLabel is the name a meal instance carries in the plan, e.g. "2 - lunch".
func MealLabel(number int, name string) string {
	return fmt.Sprintf("%d - %s", number, name)
}

// groupByDay returns the client's slots with each day's slots together.
// Days keep the order of their first appearance and slots keep their input
// order within a day.
func groupByDay(slots []models.MealSlot) []models.MealSlot {
	var days []string
	byDay := make(map[string][]models.MealSlot)
	for _, s := range slots {
		if _, ok := byDay[s.Day]; !ok {
			days = append(days, s.Day)
		}
		byDay[s.Day] = append(byDay[s.Day], s)
	}

	grouped := make([]models.MealSlot, 0, len(slots))
	for _, d := range days {
		grouped = append(grouped, byDay[d]...)
	}
	return grouped
}

func snacksOf(slots []models.MealSlot, day string) []models.MealSlot {
	var snacks []models.MealSlot
	for _, s := range slots {
		if s.Day == day && s.Snack {
			snacks = append(snacks, s)
		}
	}
	return snacks
}
