package quantity

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse splits free-form quantity text such as "500g", "1,5 l" or "3 Stk"
// into its numeric value and lower-cased unit token.
//
// A decimal comma is accepted in place of a decimal point. Whitespace between
// number and unit is skipped. Zero and negative values are returned as-is;
// range checks belong to the caller.
func Parse(text string) (float64, string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")

	n := numericPrefix(s)
	if n == 0 {
		return 0, "", fmt.Errorf("%w: no number in %q", ErrInvalidFormat, text)
	}
	value, err := strconv.ParseFloat(s[:n], 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: %v", ErrInvalidFormat, text, err)
	}

	unit := foldToken(s[n:])
	if unit == "" {
		return 0, "", fmt.Errorf("%w: no unit in %q", ErrInvalidFormat, text)
	}
	if !Known(unit) {
		return 0, "", fmt.Errorf("%w: %w: %q", ErrInvalidFormat, ErrUnknownUnit, unit)
	}

	return value, unit, nil
}

// ParseText parses free-form quantity text straight into a base-unit Quantity
func ParseText(text string) (Quantity, error) {
	value, unit, err := Parse(text)
	if err != nil {
		return Quantity{}, err
	}
	return New(value, unit)
}

// ParseValue parses a bare decimal number, accepting a comma separator.
// The whole input must be numeric.
func ParseValue(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	n := numericPrefix(s)
	if n == 0 || n != len(s) {
		return 0, fmt.Errorf("%w: not a number: %q", ErrInvalidFormat, text)
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, text, err)
	}
	return value, nil
}

// numericPrefix returns the length of the leading [+-]digits[.digits] run of s,
// or 0 if s does not start with a number. At least one digit is required.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	return i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
