package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config carries every tunable of a calculator session, loaded from
// CALCULATOR_* environment variables (optionally seeded from a .env
// file).
type Config struct {
	BaseDir         string          `env:"CALCULATOR_BASE_DIR" envDefault:"."`
	MaxHistorySize  int             `env:"CALCULATOR_MAX_HISTORY_SIZE" envDefault:"1000"`
	Precision       int             `env:"CALCULATOR_PRECISION" envDefault:"10"`
	MaxInputValue   decimal.Decimal `env:"CALCULATOR_MAX_INPUT_VALUE" envDefault:"1e999"`
	AutoSave        bool            `env:"CALCULATOR_AUTO_SAVE" envDefault:"true"`
	DefaultEncoding string          `env:"CALCULATOR_DEFAULT_ENCODING" envDefault:"utf-8"`

	// Optional overrides; empty means derived from BaseDir.
	LogDir      string `env:"CALCULATOR_LOG_DIR"`
	LogFile     string `env:"CALCULATOR_LOG_FILE"`
	HistoryDir  string `env:"CALCULATOR_HISTORY_DIR"`
	HistoryFile string `env:"CALCULATOR_HISTORY_FILE"`

	DatabasePath string `env:"CALCULATOR_DATABASE_PATH" envDefault:"./calculator.db"`
	ServerPort   string `env:"CALC_SERVICE_PORT" envDefault:"8082"`
}

// Load reads the first .env file found among the usual locations, then
// parses and validates the environment.
func Load() (*Config, error) {
	for _, file := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(file); err == nil {
			break
		}
	}
	return Parse()
}

// Parse builds a Config from the current environment without touching
// any .env file.
func Parse() (*Config, error) {
	var cfg Config
	err := env.ParseWithOptions(&cfg, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(decimal.Decimal{}): func(v string) (any, error) {
				return decimal.NewFromString(v)
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxHistorySize <= 0 {
		return fmt.Errorf("%w: max history size must be positive", ErrInvalidConfig)
	}
	if c.Precision <= 0 {
		return fmt.Errorf("%w: precision must be positive", ErrInvalidConfig)
	}
	if c.MaxInputValue.Sign() <= 0 {
		return fmt.Errorf("%w: max input value must be positive", ErrInvalidConfig)
	}
	return nil
}

// LogDirPath resolves the log directory, falling back to
// <BaseDir>/logs.
func (c *Config) LogDirPath() string {
	if c.LogDir != "" {
		return c.LogDir
	}
	return filepath.Join(c.BaseDir, "logs")
}

// LogFilePath resolves the log file, falling back to
// <log dir>/calculator.log.
func (c *Config) LogFilePath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.LogDirPath(), "calculator.log")
}

// HistoryDirPath resolves the history directory, falling back to
// <BaseDir>/history.
func (c *Config) HistoryDirPath() string {
	if c.HistoryDir != "" {
		return c.HistoryDir
	}
	return filepath.Join(c.BaseDir, "history")
}

// HistoryFilePath resolves the CSV history file, falling back to
// <history dir>/calculator_history.csv.
func (c *Config) HistoryFilePath() string {
	if c.HistoryFile != "" {
		return c.HistoryFile
	}
	return filepath.Join(c.HistoryDirPath(), "calculator_history.csv")
}
