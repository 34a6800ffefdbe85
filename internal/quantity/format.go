package quantity

import (
	"strconv"
	"strings"
)

// fractionDigits is the precision quantities are stored with
const fractionDigits = 6

// Format renders v with six fractional digits and strips trailing zeros and a
// dangling decimal point: 2.0 -> "2", 2.5 -> "2.5", 0.1 -> "0.1".
// Parse(Format(v) + unit) reproduces v within the stored precision.
func Format(v float64) string {
	s := strconv.FormatFloat(v, 'f', fractionDigits, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
