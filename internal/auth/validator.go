package auth

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Validator checks access tokens against the users table. Tokens can be
// rejected for being unknown, disabled, switched off or expired.
type Validator struct {
	db *sql.DB
	mu sync.Mutex
}

// NewValidator opens (or creates) the auth database.
func NewValidator(dbPath string) (*Validator, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open auth db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	v := &Validator{db: db}
	if err := v.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate auth db: %w", err)
	}
	log.Printf("[INFO] auth store opened: %s", dbPath)
	return v, nil
}

func (v *Validator) migrate() error {
	_, err := v.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		token       TEXT PRIMARY KEY,
		name        TEXT,
		deleted     TEXT NOT NULL DEFAULT 'F',
		switched    TEXT NOT NULL DEFAULT 'ON',
		expire_time INTEGER
	)`)
	return err
}

// Register inserts or refreshes a token. A zero expiry means the token
// never expires.
func (v *Validator) Register(token, name string, expire time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var exp sql.NullInt64
	if !expire.IsZero() {
		exp = sql.NullInt64{Int64: expire.Unix(), Valid: true}
	}
	_, err := v.db.Exec(`INSERT INTO users (token, name, expire_time)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			name = excluded.name,
			expire_time = excluded.expire_time,
			deleted = 'F',
			switched = 'ON'`,
		strings.TrimSpace(token), name, exp)
	if err != nil {
		return fmt.Errorf("register token: %w", err)
	}
	return nil
}

// Validate reports whether the token grants access, with a human
// readable reason when it does not.
func (v *Validator) Validate(token string) (bool, string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, "missing auth token"
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var deleted, switched string
	var expire sql.NullInt64
	err := v.db.QueryRow(`SELECT deleted, switched, expire_time FROM users WHERE token = ?`,
		token).Scan(&deleted, &switched, &expire)
	if err == sql.ErrNoRows {
		return false, "unknown auth token"
	}
	if err != nil {
		log.Printf("[ERROR] auth lookup failed: %v", err)
		return false, "auth lookup failed"
	}

	switch strings.ToUpper(deleted) {
	case "T", "Y", "TRUE", "ON", "1":
		return false, "auth token disabled"
	}
	switch strings.ToUpper(switched) {
	case "OFF", "DISABLED":
		return false, "auth token switched off"
	}
	if expire.Valid && time.Unix(expire.Int64, 0).Before(time.Now()) {
		return false, "auth token expired"
	}
	return true, ""
}

// Close closes the underlying database.
func (v *Validator) Close() error { return v.db.Close() }
