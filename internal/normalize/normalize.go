// Package normalize converts raw store values into the canonical wire types
// used by the ecommerce records and the catalog literal format.
package normalize

import (
	"encoding/json"
	"math"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxInt is the largest integer the catalog endpoint accepts.
const MaxInt = math.MaxInt32

var (
	invalidKeyChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	zeroLiteral     = regexp.MustCompile(`^0+(\.0*)?$`)
	hundred         = decimal.NewFromInt(100)
	maxMinorUnits   = decimal.NewFromInt(math.MaxInt64)
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decimal parses v as an exact decimal. Floats are read through their
// shortest representation so 19.99 stays 19.99.
func Decimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0), true
	case uint8:
		return decimal.NewFromInt(int64(n)), true
	case uint16:
		return decimal.NewFromInt(int64(n)), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), true
	case json.Number:
		return parseDecimalString(string(n))
	case string:
		return parseDecimalString(n)
	default:
		return decimal.Zero, false
	}
}

func parseDecimalString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// MinorUnits returns round(price*100) for a positive numeric price and 0
// for anything else. Halves round away from zero. Amounts beyond int64 are
// clamped to math.MaxInt64.
func MinorUnits(price interface{}) int64 {
	d, ok := Decimal(price)
	if !ok || !d.IsPositive() {
		return 0
	}
	minor := d.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinorUnits) {
		return math.MaxInt64
	}
	return minor.IntPart()
}

// PriceDecimal returns the exact price, or zero when v is not numeric.
// Prices have no unset state.
func PriceDecimal(v interface{}) decimal.Decimal {
	d, ok := Decimal(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

// DimensionDecimal returns the exact value of a weight or dimension, or nil
// when the store has none.
func DimensionDecimal(v interface{}) *decimal.Decimal {
	d, ok := Decimal(v)
	if !ok {
		return nil
	}
	return &d
}

// CappedInt parses v as an integer. Magnitudes at or above MaxInt are clamped
// to MaxInt and reported through capped. A value that parses to zero is only
// kept when the source was literally zero; other empty input yields nil.
func CappedInt(v interface{}) (n *int64, capped bool) {
	d, ok := Decimal(v)
	if !ok {
		return nil, false
	}

	whole := d.Truncate(0)
	if whole.Abs().GreaterThanOrEqual(decimal.NewFromInt(MaxInt)) {
		max := int64(MaxInt)
		return &max, true
	}

	i := whole.IntPart()
	if i == 0 && !literalZero(v) {
		return nil, false
	}
	return &i, false
}

func literalZero(v interface{}) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		d, _ := Decimal(n)
		return d.IsZero()
	case float32:
		return n == 0
	case float64:
		return n == 0
	case string:
		return zeroLiteral.MatchString(strings.TrimSpace(n))
	case json.Number:
		return zeroLiteral.MatchString(string(n))
	case decimal.Decimal:
		return n.IsZero()
	case *decimal.Decimal:
		return n != nil && n.IsZero()
	default:
		return false
	}
}

// SanitizeKey replaces every run of characters outside [A-Za-z0-9_] with a
// double underscore.
func SanitizeKey(key string) string {
	return invalidKeyChars.ReplaceAllString(key, "__")
}

// ISODate renders a store timestamp as RFC3339 in UTC. Timestamps without a
// zone are read as UTC.
func ISODate(v interface{}) *string {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case *time.Time:
		if d == nil {
			return nil
		}
		t = *d
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return nil
		}
		parsed, ok := parseDate(s)
		if !ok {
			return nil
		}
		t = parsed
	default:
		return nil
	}
	if t.IsZero() {
		return nil
	}
	out := t.UTC().Format(time.RFC3339)
	return &out
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// JoinNames comma-joins the non-empty names, or returns nil when none remain.
func JoinNames(names []string) *string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	joined := strings.Join(kept, ", ")
	return &joined
}

// String returns nil for an empty string.
func String(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
