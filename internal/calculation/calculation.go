package calculation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Calculation is an immutable record of one performed operation. The
// result is computed once at construction and never changes; undoing a
// calculation removes it from history rather than altering it.
type Calculation struct {
	operation Operation
	operand1  decimal.Decimal
	operand2  decimal.Decimal
	result    decimal.Decimal
	timestamp time.Time
}

// New executes op over the operands and returns the finished
// calculation. Domain failures (division by zero, negative root, ...)
// return an error and no calculation is produced.
func New(op Operation, a, b decimal.Decimal) (*Calculation, error) {
	exec, ok := operations[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}

	result, err := exec(a, b)
	if err != nil {
		return nil, err
	}

	return &Calculation{
		operation: op,
		operand1:  a,
		operand2:  b,
		result:    result,
		timestamp: time.Now(),
	}, nil
}

func (c *Calculation) Operation() Operation      { return c.operation }
func (c *Calculation) Operand1() decimal.Decimal { return c.operand1 }
func (c *Calculation) Operand2() decimal.Decimal { return c.operand2 }
func (c *Calculation) Result() decimal.Decimal   { return c.result }
func (c *Calculation) Timestamp() time.Time      { return c.timestamp }

// Equal compares operation, operands and result. The timestamp is
// deliberately excluded, so a reloaded calculation equals the original.
func (c *Calculation) Equal(other *Calculation) bool {
	if other == nil {
		return false
	}
	return c.operation == other.operation &&
		c.operand1.Equal(other.operand1) &&
		c.operand2.Equal(other.operand2) &&
		c.result.Equal(other.result)
}

func (c *Calculation) String() string {
	return fmt.Sprintf("%s(%s, %s) = %s", c.operation, c.operand1, c.operand2, c.result)
}

// FormatResult renders the result rounded to the given number of
// decimal places, with trailing zeros stripped.
func (c *Calculation) FormatResult(precision int) string {
	if precision < 0 {
		precision = 0
	}
	s := c.result.Round(int32(precision)).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// Record is the flat, string-valued form of a calculation. It is the
// column set shared by the CSV history file, the calculations table
// and the HTTP API.
type Record struct {
	Operation string `json:"operation"`
	Operand1  string `json:"operand1"`
	Operand2  string `json:"operand2"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// Record converts the calculation to its persisted form.
func (c *Calculation) Record() Record {
	return Record{
		Operation: string(c.operation),
		Operand1:  c.operand1.String(),
		Operand2:  c.operand2.String(),
		Result:    c.result.String(),
		Timestamp: c.timestamp.Format(time.RFC3339Nano),
	}
}

// FromRecord rebuilds a calculation from its persisted form. The
// stored result is kept as-is; callers that want to detect divergence
// from a recomputed result can compare against New.
func FromRecord(rec Record) (*Calculation, error) {
	op, ok := Lookup(rec.Operation)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, rec.Operation)
	}

	a, err := decimal.NewFromString(rec.Operand1)
	if err != nil {
		return nil, fmt.Errorf("invalid operand1 %q: %w", rec.Operand1, err)
	}
	b, err := decimal.NewFromString(rec.Operand2)
	if err != nil {
		return nil, fmt.Errorf("invalid operand2 %q: %w", rec.Operand2, err)
	}
	result, err := decimal.NewFromString(rec.Result)
	if err != nil {
		return nil, fmt.Errorf("invalid result %q: %w", rec.Result, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", rec.Timestamp, err)
	}

	return &Calculation{
		operation: op,
		operand1:  a,
		operand2:  b,
		result:    result,
		timestamp: ts,
	}, nil
}
