package performance

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FormatDecimal renders v with a space as thousands separator and a comma as
// decimal separator: 1234.5 -> "1 234,50".
func FormatDecimal(v interface{}, digits int) string {
	x, ok := toFloat(v)
	if !ok {
		return NoData
	}

	s := strconv.FormatFloat(x, 'f', digits, 64)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatPercent treats values in [0,1] as fractions: 0.4567 -> "45.7%",
// 45.67 -> "45.7%".
func FormatPercent(v interface{}) string {
	x, ok := toFloat(v)
	if !ok {
		return NoData
	}
	if x >= 0 && x <= 1 {
		x *= 100
	}
	return strconv.FormatFloat(x, 'f', 1, 64) + "%"
}

// FormatInt truncates toward zero and prints without separators.
func FormatInt(v interface{}) string {
	x, ok := toFloat(v)
	if !ok {
		return NoData
	}
	t := math.Trunc(x)
	if t == 0 {
		// drop the sign of -0
		t = 0
	}
	return strconv.FormatFloat(t, 'f', 0, 64)
}

// toFloat accepts Go and JSON numeric types. Booleans and numeric strings are
// not numbers here.
func toFloat(v interface{}) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}
