package history

import (
	"errors"
	"log/slog"

	"deskcalc/internal/calculation"
	"deskcalc/internal/database"
)

// ErrInvalidSaver is returned when an AutoSaveObserver is constructed
// without a saver collaborator.
var ErrInvalidSaver = errors.New("saver must provide auto-save configuration and history saving")

// LoggingObserver writes one structured log line per recorded
// calculation.
type LoggingObserver struct {
	logger *slog.Logger
}

func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) Notify(c *calculation.Calculation) error {
	if c == nil {
		return ErrNilCalculation
	}
	o.logger.Info("calculation performed",
		"operation", c.Operation(),
		"operand1", c.Operand1().String(),
		"operand2", c.Operand2().String(),
		"result", c.Result().String())
	return nil
}

// Saver is the calculator-side collaborator the AutoSaveObserver needs:
// the auto-save switch from configuration and the ability to persist
// the history file.
type Saver interface {
	AutoSaveEnabled() bool
	SaveHistory() error
}

// AutoSaveObserver persists the history file after every recorded
// calculation while auto-save is enabled. A failing save is logged and
// swallowed so the recording session is unaffected.
type AutoSaveObserver struct {
	saver  Saver
	logger *slog.Logger
}

// NewAutoSaveObserver fails fast when the saver collaborator is
// missing, rather than on first notification.
func NewAutoSaveObserver(saver Saver, logger *slog.Logger) (*AutoSaveObserver, error) {
	if saver == nil {
		return nil, ErrInvalidSaver
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoSaveObserver{saver: saver, logger: logger}, nil
}

func (o *AutoSaveObserver) Notify(c *calculation.Calculation) error {
	if c == nil {
		return ErrNilCalculation
	}
	if !o.saver.AutoSaveEnabled() {
		return nil
	}
	if err := o.saver.SaveHistory(); err != nil {
		o.logger.Error("auto-save failed", "error", err)
		return nil
	}
	o.logger.Info("history auto-saved")
	return nil
}

// PersistenceObserver inserts each recorded calculation as one row in
// the calculations table. The store is opened per notification and
// closed on every path; connection or insert failures are logged and
// swallowed so a storage outage never blocks the session.
type PersistenceObserver struct {
	dsn    string
	logger *slog.Logger
}

func NewPersistenceObserver(dsn string, logger *slog.Logger) *PersistenceObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistenceObserver{dsn: dsn, logger: logger}
}

func (o *PersistenceObserver) Notify(c *calculation.Calculation) error {
	if c == nil {
		return ErrNilCalculation
	}

	store, err := database.Open(o.dsn)
	if err != nil {
		o.logger.Error("open calculation store", "dsn", o.dsn, "error", err)
		return nil
	}
	defer store.Close()

	if err := store.InsertCalculation(c); err != nil {
		o.logger.Error("persist calculation", "operation", c.Operation(), "error", err)
		return nil
	}
	return nil
}
