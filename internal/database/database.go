package database

import (
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	"golang.org/x/crypto/bcrypt"

	"deskcalc/internal/calculation"
)

// Store wraps a SQLite database holding the calculations table and the
// API user accounts. Connections are scoped: callers Open, use and
// Close; nothing is pooled across calls.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS calculations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation TEXT NOT NULL,
			operand1 TEXT NOT NULL,
			operand2 TEXT NOT NULL,
			result TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create calculations table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			login TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// InsertCalculation writes one calculation row. Decimal values are
// stored as text so no precision is lost.
func (s *Store) InsertCalculation(c *calculation.Calculation) error {
	rec := c.Record()
	_, err := s.db.Exec(
		"INSERT INTO calculations (operation, operand1, operand2, result, timestamp) VALUES (?, ?, ?, ?, ?)",
		rec.Operation, rec.Operand1, rec.Operand2, rec.Result, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}
	return nil
}

// ListCalculations returns the most recent rows in insertion order.
// A non-positive limit returns everything.
func (s *Store) ListCalculations(limit int) ([]calculation.Record, error) {
	query := "SELECT operation, operand1, operand2, result, timestamp FROM calculations ORDER BY id"
	args := []any{}
	if limit > 0 {
		query = `SELECT operation, operand1, operand2, result, timestamp FROM (
			SELECT id, operation, operand1, operand2, result, timestamp
			FROM calculations ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	defer rows.Close()

	var records []calculation.Record
	for rows.Next() {
		var rec calculation.Record
		if err := rows.Scan(&rec.Operation, &rec.Operand1, &rec.Operand2, &rec.Result, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan calculation row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// User is an API account.
type User struct {
	ID       int
	Login    string
	Password string
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Store) CreateUser(login, password string) (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE login = ?", login).Scan(&count); err != nil {
		return 0, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return 0, fmt.Errorf("user %s already exists", login)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	result, err := s.db.Exec("INSERT INTO users (login, password) VALUES (?, ?)", login, string(hashed))
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read user id: %w", err)
	}
	return int(id), nil
}

// GetUser looks an account up by login. A missing user returns
// (nil, nil).
func (s *Store) GetUser(login string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, login, password FROM users WHERE login = ?", login).
		Scan(&user.ID, &user.Login, &user.Password)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// CheckPasswordHash compares a plaintext password against its bcrypt
// hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
