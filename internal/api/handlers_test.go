package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskcalc/internal/api"
	"deskcalc/internal/calculation"
	"deskcalc/internal/calculator"
	"deskcalc/internal/config"
	"deskcalc/internal/database"
	"deskcalc/internal/history"
)

type testServer struct {
	router http.Handler
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	tmp := t.TempDir()
	cfg := &config.Config{
		BaseDir:        tmp,
		MaxHistorySize: 10,
		Precision:      10,
		MaxInputValue:  decimal.New(1, 9),
		AutoSave:       false,
		DatabasePath:   filepath.Join(tmp, "calculator.db"),
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	store, err := database.Open(cfg.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	calc, err := calculator.New(cfg, logger)
	require.NoError(t, err)
	calc.History().Register(history.NewPersistenceObserver(cfg.DatabasePath, logger))

	router := api.SetupRouter(api.NewHandler(calc, store, logger))
	ts := &testServer{router: router}

	ts.do(t, http.MethodPost, "/api/v1/register", api.AuthRequest{Login: "alice", Password: "pw"}, http.StatusCreated)
	resp := ts.do(t, http.MethodPost, "/api/v1/login", api.AuthRequest{Login: "alice", Password: "pw"}, http.StatusOK)

	var login api.LoginResponse
	require.NoError(t, json.Unmarshal(resp, &login))
	require.NotEmpty(t, login.Token)
	ts.token = login.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, wantStatus int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, path, &buf)
	if ts.token != "" {
		r.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, r)
	require.Equal(t, wantStatus, w.Code, "body: %s", w.Body.String())
	return w.Body.Bytes()
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/v1/register", api.AuthRequest{Login: " ", Password: "pw"}, http.StatusBadRequest)
	ts.do(t, http.MethodPost, "/api/v1/register", api.AuthRequest{Login: "alice", Password: "pw"}, http.StatusConflict)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/v1/login", api.AuthRequest{Login: "alice", Password: "wrong"}, http.StatusUnauthorized)
	ts.do(t, http.MethodPost, "/api/v1/login", api.AuthRequest{Login: "ghost", Password: "pw"}, http.StatusUnauthorized)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	ts.do(t, http.MethodPost, "/api/v1/calculate", api.CalculateRequest{Operation: "add", Operand1: "1", Operand2: "2"}, http.StatusUnauthorized)
	ts.do(t, http.MethodGet, "/api/v1/history", nil, http.StatusUnauthorized)
	ts.do(t, http.MethodPost, "/api/v1/undo", nil, http.StatusUnauthorized)
}

func TestCalculate(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/calculate",
		api.CalculateRequest{Operation: "add", Operand1: "2", Operand2: "3"}, http.StatusOK)

	var result api.CalculateResponse
	require.NoError(t, json.Unmarshal(resp, &result))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "add", result.Operation)
	assert.Equal(t, "5", result.Result)
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/v1/calculate",
		api.CalculateRequest{Operation: "cube", Operand1: "1", Operand2: "2"}, http.StatusUnprocessableEntity)
	ts.do(t, http.MethodPost, "/api/v1/calculate",
		api.CalculateRequest{Operation: "divide", Operand1: "1", Operand2: "0"}, http.StatusUnprocessableEntity)
	ts.do(t, http.MethodPost, "/api/v1/calculate",
		api.CalculateRequest{Operation: "add", Operand1: "one", Operand2: "2"}, http.StatusUnprocessableEntity)
}

func TestHistoryAndUndoRedo(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/v1/calculate",
		api.CalculateRequest{Operation: "add", Operand1: "1", Operand2: "2"}, http.StatusOK)
	ts.do(t, http.MethodPost, "/api/v1/calculate",
		api.CalculateRequest{Operation: "multiply", Operand1: "3", Operand2: "4"}, http.StatusOK)

	var hist api.HistoryResponse
	resp := ts.do(t, http.MethodGet, "/api/v1/history", nil, http.StatusOK)
	require.NoError(t, json.Unmarshal(resp, &hist))
	require.Len(t, hist.Calculations, 2)

	resp = ts.do(t, http.MethodPost, "/api/v1/undo", nil, http.StatusOK)
	var undone calculation.Record
	require.NoError(t, json.Unmarshal(resp, &undone))
	assert.Equal(t, "multiply", undone.Operation)

	resp = ts.do(t, http.MethodGet, "/api/v1/history", nil, http.StatusOK)
	require.NoError(t, json.Unmarshal(resp, &hist))
	require.Len(t, hist.Calculations, 1)

	ts.do(t, http.MethodPost, "/api/v1/redo", nil, http.StatusOK)
	resp = ts.do(t, http.MethodGet, "/api/v1/history", nil, http.StatusOK)
	require.NoError(t, json.Unmarshal(resp, &hist))
	require.Len(t, hist.Calculations, 2)

	ts.do(t, http.MethodPost, "/api/v1/redo", nil, http.StatusConflict)

	ts.do(t, http.MethodPost, "/api/v1/clear", nil, http.StatusOK)
	ts.do(t, http.MethodPost, "/api/v1/undo", nil, http.StatusConflict)
}

func TestSavedHistoryIsAppendOnly(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/v1/calculate",
		api.CalculateRequest{Operation: "add", Operand1: "1", Operand2: "2"}, http.StatusOK)
	ts.do(t, http.MethodPost, "/api/v1/undo", nil, http.StatusOK)

	// The in-memory history is empty, but the persisted row survives
	// the undo.
	var hist api.HistoryResponse
	resp := ts.do(t, http.MethodGet, "/api/v1/history", nil, http.StatusOK)
	require.NoError(t, json.Unmarshal(resp, &hist))
	assert.Empty(t, hist.Calculations)

	resp = ts.do(t, http.MethodGet, "/api/v1/history/saved", nil, http.StatusOK)
	require.NoError(t, json.Unmarshal(resp, &hist))
	require.Len(t, hist.Calculations, 1)
	assert.Equal(t, "add", hist.Calculations[0].Operation)
}
