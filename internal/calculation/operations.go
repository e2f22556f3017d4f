package calculation

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Operation names the closed set of supported binary operations.
type Operation string

const (
	Add      Operation = "add"
	Subtract Operation = "subtract"
	Multiply Operation = "multiply"
	Divide   Operation = "divide"
	Mod      Operation = "mod"
	Average  Operation = "average"
	Power    Operation = "power"
	Root     Operation = "root"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrDivisionByZero   = errors.New("division by zero is not allowed")
	ErrModulusByZero    = errors.New("modulus by zero is not allowed")
	ErrNegativeExponent = errors.New("negative exponents are not supported")
	ErrNegativeRoot     = errors.New("cannot calculate root of negative number")
	ErrZeroRoot         = errors.New("zero root is undefined")
	ErrResultOutOfRange = errors.New("result is out of range")
)

type executor func(a, b decimal.Decimal) (decimal.Decimal, error)

var two = decimal.NewFromInt(2)

var operations = map[Operation]executor{
	Add: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Add(b), nil
	},
	Subtract: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Sub(b), nil
	},
	Multiply: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Mul(b), nil
	},
	Divide: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		return a.Div(b), nil
	},
	Mod: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Decimal{}, ErrModulusByZero
		}
		return a.Mod(b), nil
	},
	Average: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Add(b).Div(two), nil
	},
	// Power and Root are computed in float64.
	Power: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsNegative() {
			return decimal.Decimal{}, ErrNegativeExponent
		}
		return fromFloat(math.Pow(a.InexactFloat64(), b.InexactFloat64()))
	},
	Root: func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Decimal{}, ErrZeroRoot
		}
		if a.IsNegative() {
			return decimal.Decimal{}, ErrNegativeRoot
		}
		return fromFloat(math.Pow(a.InexactFloat64(), 1/b.InexactFloat64()))
	},
}

// fromFloat rejects NaN and infinite results; decimal.NewFromFloat
// panics on both.
func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, ErrResultOutOfRange
	}
	return decimal.NewFromFloat(f), nil
}

// Lookup resolves an operation name, case-insensitively.
func Lookup(name string) (Operation, bool) {
	op := Operation(strings.ToLower(strings.TrimSpace(name)))
	_, ok := operations[op]
	return op, ok
}

// Names returns the supported operation names in a stable order.
func Names() []string {
	return []string{
		string(Add), string(Subtract), string(Multiply), string(Divide),
		string(Mod), string(Average), string(Power), string(Root),
	}
}
