package store

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

type KeyKind int

const (
	KeyInt KeyKind = iota
	KeyDecimal
	KeyFloat
	KeyString
)

func (k KeyKind) String() string {
	switch k {
	case KeyInt:
		return "int"
	case KeyDecimal:
		return "decimal"
	case KeyFloat:
		return "float"
	case KeyString:
		return "string"
	default:
		return "unknown"
	}
}

// Key is a primary key value drawn from the closed set of supported key types.
type Key struct {
	kind KeyKind
	i    int64
	d    decimal.Decimal
	f    float64
	s    string
}

func IntKey(v int) Key {
	return Key{kind: KeyInt, i: int64(v)}
}

func DecimalKey(v decimal.Decimal) Key {
	return Key{kind: KeyDecimal, d: v}
}

func FloatKey(v float64) Key {
	return Key{kind: KeyFloat, f: v}
}

func StringKey(v string) Key {
	return Key{kind: KeyString, s: v}
}

// KeyOf converts a primary key field value into a Key.
func KeyOf(v interface{}) (Key, error) {
	switch t := v.(type) {
	case int:
		return IntKey(t), nil
	case int8:
		return Key{kind: KeyInt, i: int64(t)}, nil
	case int16:
		return Key{kind: KeyInt, i: int64(t)}, nil
	case int32:
		return Key{kind: KeyInt, i: int64(t)}, nil
	case int64:
		return Key{kind: KeyInt, i: t}, nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return Key{}, fmt.Errorf("%w: uint %d overflows int64", ErrUnsupportedKey, t)
		}
		return Key{kind: KeyInt, i: int64(t)}, nil
	case uint8:
		return Key{kind: KeyInt, i: int64(t)}, nil
	case uint16:
		return Key{kind: KeyInt, i: int64(t)}, nil
	case uint32:
		return Key{kind: KeyInt, i: int64(t)}, nil
	case uint64:
		if t > math.MaxInt64 {
			return Key{}, fmt.Errorf("%w: uint64 %d overflows int64", ErrUnsupportedKey, t)
		}
		return Key{kind: KeyInt, i: int64(t)}, nil
	case float32:
		return FloatKey(float64(t)), nil
	case float64:
		return FloatKey(t), nil
	case decimal.Decimal:
		return DecimalKey(t), nil
	case string:
		return StringKey(t), nil
	default:
		return Key{}, fmt.Errorf("%w: %T", ErrUnsupportedKey, v)
	}
}

func (k Key) Kind() KeyKind {
	return k.kind
}

// Value is the driver argument used when looking the key up in the store.
func (k Key) Value() interface{} {
	switch k.kind {
	case KeyInt:
		return k.i
	case KeyDecimal:
		return k.d
	case KeyFloat:
		return k.f
	default:
		return k.s
	}
}

// Finite reports false for NaN and infinite float keys. No stored row has such a key.
func (k Key) Finite() bool {
	return k.kind != KeyFloat || !(math.IsNaN(k.f) || math.IsInf(k.f, 0))
}

func (k Key) numeric() (decimal.Decimal, bool) {
	switch k.kind {
	case KeyInt:
		return decimal.NewFromInt(k.i), true
	case KeyDecimal:
		return k.d, true
	case KeyFloat:
		return decimal.NewFromFloat(k.f), true
	default:
		return decimal.Decimal{}, false
	}
}

// Equal compares numeric keys by value regardless of their kind, so IntKey(3)
// equals DecimalKey(3) and FloatKey(3).
// NaN equals nothing, not even itself.
func (k Key) Equal(other Key) bool {
	if !k.Finite() || !other.Finite() {
		return k.kind == KeyFloat && other.kind == KeyFloat && k.f == other.f
	}
	a, aNum := k.numeric()
	b, bNum := other.numeric()
	if aNum && bNum {
		return a.Equal(b)
	}
	if aNum != bNum {
		return false
	}
	return k.s == other.s
}

func (k Key) String() string {
	switch k.kind {
	case KeyInt:
		return strconv.FormatInt(k.i, 10)
	case KeyDecimal:
		return k.d.String()
	case KeyFloat:
		return strconv.FormatFloat(k.f, 'f', -1, 64)
	default:
		return k.s
	}
}
