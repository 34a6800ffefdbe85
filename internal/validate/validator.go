package validate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidInput is wrapped by every validation failure
var ErrInvalidInput = errors.New("invalid input")

const (
	maxIntegerLength = 18
	maxDecimalLength = 24
)

// Validator checks user supplied text against the configured length limits
type Validator struct {
	maxText     int
	maxFilename int
}

// NewValidator creates a validator. Non-positive limits fall back to the
// catalog defaults (127 characters of text, 259 for file names).
func NewValidator(maxText, maxFilename int) *Validator {
	if maxText <= 0 {
		maxText = 127
	}
	if maxFilename <= 0 {
		maxFilename = 259
	}
	return &Validator{maxText: maxText, maxFilename: maxFilename}
}

// Text validates a required free-text field such as an article or provider
func (v *Validator) Text(field, s string) error {
	if err := Text(s, v.maxText); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// OptionalText validates a free-text field that may be empty
func (v *Validator) OptionalText(field, s string) error {
	if err := OptionalText(s, v.maxText); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// Filename validates a catalog name
func (v *Validator) Filename(s string) error {
	return Filename(s, v.maxFilename)
}

// printable rejects control characters and the characters that break the
// line-oriented storage formats or HTML output.
func printable(r rune) bool {
	if r < 32 || r == 127 || r == utf8.RuneError {
		return false
	}
	switch r {
	case '<', '>', '|', '\\':
		return false
	}
	return true
}

// Text checks that s is non-empty, at most maxLen bytes and printable
func Text(s string, maxLen int) error {
	if s == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	if len(s) > maxLen {
		return fmt.Errorf("%w: text longer than %d bytes", ErrInvalidInput, maxLen)
	}
	for _, r := range s {
		if !printable(r) {
			return fmt.Errorf("%w: character %q not allowed", ErrInvalidInput, r)
		}
	}
	return nil
}

// OptionalText is Text but accepts the empty string
func OptionalText(s string, maxLen int) error {
	if s == "" {
		return nil
	}
	return Text(s, maxLen)
}

// Filename checks a bare file name: printable text without path separators or "..".
func Filename(s string, maxLen int) error {
	if err := Text(s, maxLen); err != nil {
		return err
	}
	if strings.Contains(s, "..") || strings.ContainsAny(s, "/\\") {
		return fmt.Errorf("%w: %q is not a plain file name", ErrInvalidInput, s)
	}
	return nil
}

// Integer parses an optionally signed decimal integer within [min, max]
func Integer(s string, min, max int64) (int64, error) {
	if s == "" || len(s) > maxIntegerLength {
		return 0, fmt.Errorf("%w: integer length", ErrInvalidInput)
	}
	digits := strings.TrimLeft(s[:1], "+-") + s[1:]
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidInput, s, err)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidInput, n, min, max)
	}
	return n, nil
}

// Decimal parses a decimal number with a point or comma separator, at most
// maxFraction fractional digits, within [min, max].
func Decimal(s string, min, max float64, maxFraction int) (float64, error) {
	if s == "" || len(s) > maxDecimalLength || maxFraction < 0 {
		return 0, fmt.Errorf("%w: decimal length", ErrInvalidInput)
	}
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}

	separator := false
	fraction := 0
	for _, r := range body {
		switch {
		case r == '.' || r == ',':
			if separator {
				return 0, fmt.Errorf("%w: %q has more than one separator", ErrInvalidInput, s)
			}
			separator = true
		case r >= '0' && r <= '9':
			if separator {
				fraction++
				if fraction > maxFraction {
					return 0, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidInput, s, maxFraction)
				}
			}
		default:
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
		}
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("%w: %v outside [%v, %v]", ErrInvalidInput, value, min, max)
	}
	return value, nil
}

// Flag parses an optional "0"/"1" flag; empty means false
func Flag(s string) (bool, error) {
	switch s {
	case "", "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("%w: flag must be 0 or 1, got %q", ErrInvalidInput, s)
	}
}
