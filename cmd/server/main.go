package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"deskcalc/internal/api"
	"deskcalc/internal/calculator"
	"deskcalc/internal/config"
	"deskcalc/internal/database"
	"deskcalc/internal/history"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer store.Close()

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

	router := api.SetupRouter(api.NewHandler(calc, store, logger))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Server listening on http://localhost:%s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe(addr, router))
}
