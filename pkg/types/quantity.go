package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is an exact, JSON-number encoded amount of a food item. Decimal
// arithmetic keeps reserve/release round trips exact.
type Quantity struct {
	d decimal.Decimal
}

// ZeroQuantity is the additive identity.
var ZeroQuantity = Quantity{}

// NewQuantity builds a whole-number quantity.
func NewQuantity(v int64) Quantity {
	return Quantity{d: decimal.NewFromInt(v)}
}

// QuantityFromFloat converts a float, e.g. a value typed on the command line.
func QuantityFromFloat(v float64) Quantity {
	return Quantity{d: decimal.NewFromFloat(v)}
}

// ParseQuantity parses a decimal string such as "2" or "0.5".
func ParseQuantity(value string) (Quantity, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ZeroQuantity, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return ZeroQuantity, fmt.Errorf("invalid quantity %q: %w", value, err)
	}
	return Quantity{d: d}, nil
}

func (q Quantity) Decimal() decimal.Decimal { return q.d }

func (q Quantity) Add(other Quantity) Quantity { return Quantity{d: q.d.Add(other.d)} }

func (q Quantity) Sub(other Quantity) Quantity { return Quantity{d: q.d.Sub(other.d)} }

func (q Quantity) Cmp(other Quantity) int { return q.d.Cmp(other.d) }

func (q Quantity) Equal(other Quantity) bool { return q.d.Equal(other.d) }

func (q Quantity) IsZero() bool { return q.d.IsZero() }

func (q Quantity) IsPositive() bool { return q.d.IsPositive() }

func (q Quantity) IsNegative() bool { return q.d.IsNegative() }

// Min returns the smaller of q and other.
func (q Quantity) Min(other Quantity) Quantity {
	if q.d.LessThan(other.d) {
		return q
	}
	return other
}

// FloorZero clamps negative values to zero.
func (q Quantity) FloorZero() Quantity {
	if q.d.IsNegative() {
		return ZeroQuantity
	}
	return q
}

func (q Quantity) Float64() float64 {
	f, _ := q.d.Float64()
	return f
}

func (q Quantity) String() string {
	return q.d.String()
}

// MarshalJSON writes the quantity as a bare JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.d.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null (zero).
func (q *Quantity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*q = ZeroQuantity
		return nil
	}
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		parsed, err := ParseQuantity(raw)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return fmt.Errorf("invalid quantity %s: %w", trimmed, err)
	}
	*q = Quantity{d: d}
	return nil
}
