package ir

import (
	"fmt"
	"math"
	"slices"
)

// Block data values are restricted to JSON primitives. Numbers are float64
// after any JSON round-trip, so accessors accept the common Go integer types
// as well to keep hand-built documents convenient.

// IsPrimitive reports whether v may be stored in Block.Data.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int32, int64:
		return true
	}
	return false
}

// ValidateData checks that every value in data is a primitive.
// Keys are reported in sorted order for stable messages.
func ValidateData(data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !IsPrimitive(data[k]) {
			return fmt.Errorf("data[%q]: unsupported value type %T", k, data[k])
		}
	}
	return nil
}

// Number returns the numeric value stored under key.
func (b *Block) Number(key string) (float64, bool) {
	return toFloat(b.Data[key])
}

// Text returns the string stored under key, or "" when absent or not a string.
func (b *Block) Text(key string) string {
	s, _ := b.Data[key].(string)
	return s
}

// Bool returns the boolean stored under key.
func (b *Block) Bool(key string) (bool, bool) {
	v, ok := b.Data[key].(bool)
	return v, ok
}

// Has reports whether key is present with a non-nil value.
func (b *Block) Has(key string) bool {
	v, ok := b.Data[key]
	return ok && v != nil
}

// IsExpression reports whether field holds source code rather than a literal.
func (b *Block) IsExpression(field string) bool {
	v, _ := b.Data[ExpressionKey(field)].(bool)
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
