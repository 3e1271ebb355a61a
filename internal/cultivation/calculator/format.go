package calculator

import (
	"fmt"
	"math"
)

// FormatResourceAmount renders a stone count, switching to ten-thousand
// units at 1e4 and hundred-million units at 1e8.
func FormatResourceAmount(amount float64) string {
	switch {
	case amount >= 1e8:
		return fmt.Sprintf("%.2f hundred-million", amount/1e8)
	case amount >= 1e4:
		return fmt.Sprintf("%.2f ten-thousand", amount/1e4)
	default:
		return fmt.Sprintf("%.0f", amount)
	}
}

const daysPerYear = 365

// FormatDuration renders a span of years. Below one year it reports whole
// days, from one year whole years plus remaining days, and from 10000
// years ten-thousand-year units.
func FormatDuration(years float64) string {
	switch {
	case years >= 10000:
		return fmt.Sprintf("%.2f ten-thousand years", years/10000)
	case years >= 1:
		whole := math.Floor(years)
		days := int(math.Floor((years - whole) * daysPerYear))
		return fmt.Sprintf("%s %s", plural(int(whole), "year"), plural(days, "day"))
	default:
		return plural(int(math.Floor(years*daysPerYear)), "day")
	}
}

// FormatCoefficient renders a multiplier with precision that shrinks as it grows.
func FormatCoefficient(v float64) string {
	switch {
	case v >= 100:
		return fmt.Sprintf("%.0fx", v)
	case v >= 10:
		return fmt.Sprintf("%.1fx", v)
	default:
		return fmt.Sprintf("%.2fx", v)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
