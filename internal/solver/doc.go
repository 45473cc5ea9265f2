// Package solver balances the macros of a single meal.
//
// For every ordinary meal it picks three ingredients and solves the 3x3
// linear system that moves the meal's protein, fat and carb totals onto the
// client's residual per-meal target:
//
//	I_protein(a)·da + I_protein(b)·db + I_protein(c)·dc = diff_protein
//	I_fats(a)·da    + I_fats(b)·db    + I_fats(c)·dc    = diff_fats
//	I_carbs(a)·da   + I_carbs(b)·db   + I_carbs(c)·dc   = diff_carbs
//
// Triples are tried in a fixed order and the first one whose resulting
// quantities stay within [MinQuantity, MaxQuantity] wins. There is no
// best-fit search: a meal with no feasible triple is reported as unsolved.
//
// Everything in this package is pure computation over in-memory rows.
package solver
