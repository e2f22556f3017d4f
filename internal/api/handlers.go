package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"deskcalc/internal/auth"
	"deskcalc/internal/calculation"
	"deskcalc/internal/calculator"
	"deskcalc/internal/database"
	"deskcalc/internal/history"
)

// Handler serves the calculator over HTTP: auth against the user
// store, calculations against the session's history engine.
type Handler struct {
	calc   *calculator.Calculator
	store  *database.Store
	logger *slog.Logger
}

func NewHandler(calc *calculator.Calculator, store *database.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{calc: calc, store: store, logger: logger}
}

type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

type CalculateRequest struct {
	Operation string `json:"operation"`
	Operand1  string `json:"operand1"`
	Operand2  string `json:"operand2"`
}

type CalculateResponse struct {
	ID string `json:"id"`
	calculation.Record
}

type HistoryResponse struct {
	Calculations []calculation.Record `json:"calculations"`
}

func sendJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func sendJSONError(w http.ResponseWriter, statusCode int, message string) {
	sendJSON(w, statusCode, map[string]string{"error": message})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if strings.TrimSpace(req.Login) == "" || strings.TrimSpace(req.Password) == "" {
		sendJSONError(w, http.StatusBadRequest, "Login and password required")
		return
	}

	if _, err := h.store.CreateUser(req.Login, req.Password); err != nil {
		h.logger.Error("register user", "login", req.Login, "error", err)
		if strings.Contains(err.Error(), "already exists") {
			sendJSONError(w, http.StatusConflict, "User already exists")
			return
		}
		sendJSONError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	sendJSON(w, http.StatusCreated, map[string]string{"status": "success"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.store.GetUser(req.Login)
	if err != nil {
		h.logger.Error("look up user", "login", req.Login, "error", err)
		sendJSONError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if user == nil || !database.CheckPasswordHash(req.Password, user.Password) {
		sendJSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Login)
	if err != nil {
		h.logger.Error("generate token", "login", req.Login, "error", err)
		sendJSONError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	sendJSON(w, http.StatusOK, LoginResponse{Token: token, Status: "success"})
}

func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		sendJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	calc, err := h.calc.Apply(req.Operation, req.Operand1, req.Operand2)
	if err != nil {
		sendJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sendJSON(w, http.StatusOK, CalculateResponse{
		ID:     uuid.New().String(),
		Record: calc.Record(),
	})
}

// History returns the in-memory entries of the session, newest last.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	records := make([]calculation.Record, 0)
	for _, calc := range h.calc.History().Snapshot() {
		records = append(records, calc.Record())
	}
	sendJSON(w, http.StatusOK, HistoryResponse{Calculations: records})
}

// SavedHistory returns the rows persisted in the calculations table.
// Unlike the in-memory history it is append-only: entries undone in
// the session remain here.
func (h *Handler) SavedHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListCalculations(0)
	if err != nil {
		h.logger.Error("list saved calculations", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}
	if records == nil {
		records = []calculation.Record{}
	}
	sendJSON(w, http.StatusOK, HistoryResponse{Calculations: records})
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	calc, err := h.calc.History().Undo()
	if err != nil {
		if errors.Is(err, history.ErrNothingToUndo) {
			sendJSONError(w, http.StatusConflict, "Nothing to undo")
			return
		}
		sendJSONError(w, http.StatusInternalServerError, "Undo failed")
		return
	}
	sendJSON(w, http.StatusOK, calc.Record())
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	calc, err := h.calc.History().Redo()
	if err != nil {
		if errors.Is(err, history.ErrNothingToRedo) {
			sendJSONError(w, http.StatusConflict, "Nothing to redo")
			return
		}
		sendJSONError(w, http.StatusInternalServerError, "Redo failed")
		return
	}
	sendJSON(w, http.StatusOK, calc.Record())
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.calc.History().Clear()
	sendJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
