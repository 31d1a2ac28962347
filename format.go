package objtree

import (
	"math"
	"strconv"
	"strings"
)

// FloatFormat describes how floating point values are written.
//
// Values whose magnitude is below SciBelow or above SciAbove are
// written in scientific notation, all others in fixed notation. Zero
// always uses fixed notation. Precision is the number of digits after
// the decimal point (for scientific notation, in the mantissa) before
// trailing zeros are trimmed.
type FloatFormat struct {
	Precision int
	SciBelow  float64
	SciAbove  float64
}

// defaultFloatFormat is used by Encoders with no FormatFloat func.
var defaultFloatFormat = FloatFormat{
	Precision: 6,
	SciBelow:  0.001,
	SciAbove:  100000,
}

// DefaultFloatFormat returns the format used when an [Encoder] has no
// FormatFloat func: precision 6, scientific notation below 0.001 and
// above 100000.
func DefaultFloatFormat() FloatFormat {
	return defaultFloatFormat
}

// Format formats v according to f.
func (f FloatFormat) Format(v float64) string {
	return FormatFloat(v, f.Precision, f.SciBelow, f.SciAbove)
}

// FormatFloat formats v with the given precision, using scientific
// notation if abs(v) is below lower or above upper, and fixed
// notation otherwise. Zero, positive or negative, is always "0".
// Trailing zeros after the decimal point are trimmed, along with the
// decimal point itself if nothing remains after it.
//
//	FormatFloat(100, 6, 0.001, 100000)        // "100"
//	FormatFloat(1e-6, 6, 0.001, 100000)       // "1e-06"
//	FormatFloat(123456.789, 6, 0.001, 100000) // "1.234568e+05"
func FormatFloat(v float64, precision int, lower, upper float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs < lower || abs > upper {
		return trimScientific(strconv.FormatFloat(v, 'e', precision, 64))
	}
	return trimFixed(strconv.FormatFloat(v, 'f', precision, 64))
}

func trimFixed(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func trimScientific(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return s
	}
	mant, exp := s[:i], s[i:]
	return trimFixed(mant) + exp
}
