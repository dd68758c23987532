package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrEmptyNumber is returned for blank input
var ErrEmptyNumber = errors.New("empty value")

// ErrNotFinite is returned for NaN and infinite values
var ErrNotFinite = errors.New("value must be a finite number")

// ParseNumber converts user input into a float64.
// Accepts:
// - Surrounding whitespace
// - Leading sign, decimal point and exponent ("+1.5e3")
// - Underscores between digits ("1_500")
// Rejects hex literals, NaN and infinities.
func ParseNumber(input string) (float64, error) {
	s := strings.TrimFunc(input, unicode.IsSpace)
	if s == "" {
		return 0, ErrEmptyNumber
	}

	cleaned, ok := stripDigitSeparators(s)
	if !ok || strings.ContainsAny(cleaned, "xX") {
		return 0, fmt.Errorf("invalid number %q", input)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, ErrNotFinite
		}
		return 0, fmt.Errorf("invalid number %q", input)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// CheckFinite rejects NaN and infinite values
func CheckFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNotFinite
	}
	return nil
}

// stripDigitSeparators removes underscores that sit between two digits.
// Any other underscore makes the input invalid.
func stripDigitSeparators(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' {
			b.WriteByte(c)
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
