// Package modifier converts raw attribute scores into d20-style modifiers.
package modifier

import "strconv"

// For returns floor((score-10)/2). Scores are not range-checked; callers
// bound them at entry.
func For(score int) int {
	delta := score - 10
	if delta < 0 && delta%2 != 0 {
		return delta/2 - 1
	}
	return delta / 2
}

// Format renders a modifier with an explicit sign for non-negative values.
func Format(mod int) string {
	if mod >= 0 {
		return "+" + strconv.Itoa(mod)
	}
	return strconv.Itoa(mod)
}

// Label returns the formatted modifier for a raw score.
func Label(score int) string {
	return Format(For(score))
}
