package calculator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"deskcalc/internal/calculation"
	"deskcalc/internal/config"
	"deskcalc/internal/history"
)

var (
	ErrInvalidNumber = errors.New("invalid number format")
	ErrInputTooLarge = errors.New("value exceeds maximum allowed")
)

var csvHeader = []string{"operation", "operand1", "operand2", "result", "timestamp"}

// Calculator is one interactive session: configuration, the bounded
// history engine and the CSV history file. It implements
// history.Saver, so an AutoSaveObserver can be pointed back at it.
type Calculator struct {
	cfg     *config.Config
	history *history.History
	logger  *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*Calculator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Calculator{
		cfg:     cfg,
		history: history.New(cfg.MaxHistorySize, logger),
		logger:  logger,
	}, nil
}

func (c *Calculator) Config() *config.Config    { return c.cfg }
func (c *Calculator) History() *history.History { return c.history }
func (c *Calculator) AutoSaveEnabled() bool     { return c.cfg.AutoSave }

// Apply validates the raw operands, performs the named operation and
// records the finished calculation in the history.
func (c *Calculator) Apply(opName, a, b string) (*calculation.Calculation, error) {
	op, ok := calculation.Lookup(opName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", calculation.ErrUnknownOperation, opName)
	}

	av, err := c.validateNumber(a)
	if err != nil {
		return nil, err
	}
	bv, err := c.validateNumber(b)
	if err != nil {
		return nil, err
	}

	calc, err := calculation.New(op, av, bv)
	if err != nil {
		return nil, err
	}
	if err := c.history.Record(calc); err != nil {
		return nil, err
	}
	return calc, nil
}

func (c *Calculator) validateNumber(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	if value.Abs().GreaterThan(c.cfg.MaxInputValue) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInputTooLarge, c.cfg.MaxInputValue)
	}
	return value, nil
}

// SaveHistory writes the current entries to the CSV history file,
// creating the history directory if needed.
func (c *Calculator) SaveHistory() error {
	path := c.cfg.HistoryFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write history header: %w", err)
	}
	for _, calc := range c.history.Snapshot() {
		rec := calc.Record()
		row := []string{rec.Operation, rec.Operand1, rec.Operand2, rec.Result, rec.Timestamp}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush history file: %w", err)
	}

	c.logger.Info("history saved", "file", path, "entries", c.history.Len())
	return nil
}

// LoadHistory replaces the in-memory entries with the contents of the
// CSV history file. A missing file starts an empty session and is not
// an error. Rows whose stored result differs from the recomputed one
// are kept, with a warning.
func (c *Calculator) LoadHistory() error {
	path := c.cfg.HistoryFilePath()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Info("no history file found, starting empty", "file", path)
			return nil
		}
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read history file: %w", err)
	}
	if len(rows) <= 1 {
		c.history.Replace(nil)
		return nil
	}

	entries := make([]*calculation.Calculation, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return fmt.Errorf("malformed history row: %v", row)
		}
		rec := calculation.Record{
			Operation: row[0],
			Operand1:  row[1],
			Operand2:  row[2],
			Result:    row[3],
			Timestamp: row[4],
		}
		calc, err := calculation.FromRecord(rec)
		if err != nil {
			return fmt.Errorf("load history entry: %w", err)
		}
		c.warnOnResultDrift(calc)
		entries = append(entries, calc)
	}

	c.history.Replace(entries)
	c.logger.Info("history loaded", "file", path, "entries", len(entries))
	return nil
}

func (c *Calculator) warnOnResultDrift(calc *calculation.Calculation) {
	recomputed, err := calculation.New(calc.Operation(), calc.Operand1(), calc.Operand2())
	if err != nil || !recomputed.Result().Equal(calc.Result()) {
		c.logger.Warn("loaded result differs from recomputed result",
			"calculation", calc.String())
	}
}

// ShowHistory renders every entry as its display string.
func (c *Calculator) ShowHistory() []string {
	snapshot := c.history.Snapshot()
	out := make([]string, len(snapshot))
	for i, calc := range snapshot {
		out[i] = calc.String()
	}
	return out
}
