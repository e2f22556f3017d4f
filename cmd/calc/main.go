package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"deskcalc/internal/calculation"
	"deskcalc/internal/calculator"
	"deskcalc/internal/config"
	"deskcalc/internal/history"
)

const helpText = `Calculator Commands:
----------------------
Basic Commands:
    add <a> <b>         Add two numbers
    subtract <a> <b>    Subtract two numbers
    multiply <a> <b>    Multiply two numbers
    divide <a> <b>      Divide two numbers
    mod <a> <b>         Mod of two numbers
    average <a> <b>     Average of two numbers
    power <a> <b>       Raise a to the power of b
    root <a> <b>        b-th root of a

Advanced Commands:
    undo                Undo the last operation
    redo                Redo the previously undone operation
    save                Save calculation history
    load                Load calculation history
    history             Display calculation history
    clear               Clear all history
    help                Show this help message
    exit                Exit the calculator

Operands may follow the command or be entered at the prompt.`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		log.Fatalf("logging setup error: %v", err)
	}
	defer closeLog()

	calc, err := calculator.New(cfg, logger)
	if err != nil {
		log.Fatalf("calculator setup error: %v", err)
	}

	if err := calc.LoadHistory(); err != nil {
		logger.Warn("could not load existing history", "error", err)
	}

	calc.History().Register(history.NewLoggingObserver(logger))
	autoSave, err := history.NewAutoSaveObserver(calc, logger)
	if err != nil {
		log.Fatalf("auto-save setup error: %v", err)
	}
	calc.History().Register(autoSave)
	calc.History().Register(history.NewPersistenceObserver(cfg.DatabasePath, logger))

	logger.Info("calculator initialized", "max_history_size", cfg.MaxHistorySize)
	fmt.Println("Calculator started. Type 'help' for commands.")

	repl(calc, cfg, os.Stdin, os.Stdout)
}

func setupLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	path := cfg.LogFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, nil))
	return logger, func() { f.Close() }, nil
}

func repl(calc *calculator.Calculator, cfg *config.Config, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	prompt := func() bool {
		fmt.Fprint(out, "> ")
		return scanner.Scan()
	}

	for prompt() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		command := strings.ToLower(fields[0])
		args := fields[1:]

		switch command {
		case "exit", "quit":
			if err := calc.SaveHistory(); err != nil {
				fmt.Fprintf(out, "Warning: could not save history: %v\n", err)
			} else {
				fmt.Fprintln(out, "History saved successfully.")
			}
			fmt.Fprintln(out, "Goodbye!")
			return
		case "help":
			fmt.Fprintln(out, helpText)
		case "history":
			entries := calc.ShowHistory()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No calculations in history.")
				continue
			}
			for _, line := range entries {
				fmt.Fprintln(out, line)
			}
		case "clear":
			calc.History().Clear()
			fmt.Fprintln(out, "History cleared.")
		case "undo":
			undone, err := calc.History().Undo()
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			fmt.Fprintf(out, "Undid: %s\n", undone)
		case "redo":
			redone, err := calc.History().Redo()
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			fmt.Fprintf(out, "Redid: %s\n", redone)
		case "save":
			if err := calc.SaveHistory(); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "History saved successfully.")
		case "load":
			if err := calc.LoadHistory(); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "History loaded successfully.")
		default:
			if _, ok := calculation.Lookup(command); !ok {
				fmt.Fprintf(out, "Unknown command: %q. Type 'help' for available commands.\n", command)
				continue
			}

			a, b, err := readOperands(args, scanner, out)
			if err != nil {
				fmt.Fprintln(out, "Input terminated.")
				return
			}

			result, err := calc.Apply(command, a, b)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Result: %s\n", result.FormatResult(cfg.Precision))
		}
	}
}

var errInputClosed = errors.New("input closed")

func readOperands(args []string, scanner *bufio.Scanner, out io.Writer) (string, string, error) {
	if len(args) >= 2 {
		return args[0], args[1], nil
	}

	read := func(label string) (string, error) {
		fmt.Fprintf(out, "Enter %s operand: ", label)
		if !scanner.Scan() {
			return "", errInputClosed
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	a := ""
	if len(args) == 1 {
		a = args[0]
	} else {
		var err error
		if a, err = read("first"); err != nil {
			return "", "", err
		}
	}

	b, err := read("second")
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}
