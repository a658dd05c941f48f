package service

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ParseDistanceKm reads a human-readable distance such as "2.8 km",
// "1,200 m" or "3.5" and returns kilometres. Anything unparseable, and any
// negative or non-finite value, yields 0 and false.
func ParseDistanceKm(s string) (float64, bool) {
	number, unit, ok := splitDistance(s)
	if !ok {
		return 0, false
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}

	switch unit {
	case "", "km", "kms", "kilometer", "kilometers", "kilometre", "kilometres":
		return value, true
	case "m", "meter", "meters", "metre", "metres":
		return value / 1000, true
	case "mi", "mile", "miles":
		return value * 1.609344, true
	}
	return 0, false
}

// nonFiniteDistance reports whether s leads with NaN or an infinity.
// Free text such as "about ten minutes" is not rejected.
func nonFiniteDistance(s string) bool {
	number, _, ok := splitDistance(s)
	if !ok {
		return false
	}
	value, err := strconv.ParseFloat(number, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return false
	}
	return math.IsNaN(value) || math.IsInf(value, 0)
}

func splitDistance(s string) (number, unit string, ok bool) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return "", "", false
	}

	number = strings.ReplaceAll(fields[0], ",", "")
	if len(fields) > 1 {
		unit = fields[1]
	} else {
		// Accept a glued unit like "2.8km" or "900m".
		i := strings.IndexFunc(number, func(r rune) bool { return r >= 'a' && r <= 'z' })
		if i > 0 {
			number, unit = number[:i], number[i:]
		}
	}

	return number, unit, true
}
