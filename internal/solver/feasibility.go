package solver

// Serving multiplier bounds applied to every adjusted ingredient.
const (
	MinQuantity = 0.0
	MaxQuantity = 5.0
)

// WithinBounds reports whether quantity+delta lies in [MinQuantity, MaxQuantity].
// NaN and infinite totals are out of bounds.
func WithinBounds(quantity, delta float64) bool {
	total := quantity + delta
	return total >= MinQuantity && total <= MaxQuantity
}
