package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// Initialize the postgres schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createUsersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createUsersEmailIndexQuery := `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`

	createPlannedRoutesQuery := `
	CREATE TABLE IF NOT EXISTS planned_routes (
		route_number TEXT PRIMARY KEY,
		geometry TEXT NOT NULL,
		stops JSONB NOT NULL,
		order_count INTEGER NOT NULL,
		weight DOUBLE PRECISION NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		duration_h DOUBLE PRECISION NOT NULL,
		load_percent DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	statements := []string{
		createUsersQuery,
		createUsersEmailIndexQuery,
		createPlannedRoutesQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type UserSeed struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Populate the users table from a JSON file. Existing emails are left untouched.
func SeedUsersFromJSON(db *sql.DB, jsonPath string, hash func(string) (string, error)) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed users: read %q: %w", jsonPath, err)
	}

	var data []UserSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed users: parse json: %w", err)
	}

	rows := make([]UserSeed, 0, len(data))
	for i, item := range data {
		email := strings.ToLower(strings.TrimSpace(item.Email))
		if email == "" || item.Password == "" {
			return fmt.Errorf("seed users: item at index %d: email and password are required", i+1)
		}
		if item.Role == "" {
			item.Role = "user"
		}
		item.Email = email
		rows = append(rows, item)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed users: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
	INSERT INTO users (username, email, password, role)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (email) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed users: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range rows {
		h, err := hash(u.Password)
		if err != nil {
			return fmt.Errorf("seed users: hash password for %q: %w", u.Email, err)
		}
		if _, err := stmt.Exec(u.Username, u.Email, h, u.Role); err != nil {
			return fmt.Errorf("seed users: insert %q: %w", u.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed users: commit tx: %w", err)
	}

	return nil
}
