/*
Package sqlite provides a SQLite-backed implementation of crm.Store.

PURPOSE:
  Persists clients and policies in two related tables. The schema matches
  the one the agent's existing database file already uses, so an old
  crm.db can be opened as is.

KEY TABLES:
  clients:  id, name, phone, email, notes
  policies: id, client_id -> clients(id), policy_no, insurer, policy_type,
            issued_date, expiry_date (ISO text), premium, status, notes

INTEGRITY:
  Foreign keys are enabled on open, so a policy for a missing client is
  rejected by the engine and surfaced as crm.ErrClientNotFound. Phone is
  not unique; the importer uses it as a lookup key only.

CONNECTIONS:
  A single connection is used. The application is synchronous and an
  in-memory database only exists on the connection that created it.

USAGE:
  store, err := sqlite.New("./data/crm.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - crm/store.go: Interface definition
  - crm/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/renewal-crm/crm"
)

// Ensure Store implements crm.Store
var _ crm.Store = (*Store)(nil)

// Store implements crm.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and creates) the database at dbPath and applies the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		notes TEXT
	);

	CREATE TABLE IF NOT EXISTS policies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER,
		policy_no TEXT,
		insurer TEXT,
		policy_type TEXT,
		issued_date TEXT,
		expiry_date TEXT,
		premium REAL,
		status TEXT DEFAULT 'Active',
		notes TEXT,
		FOREIGN KEY(client_id) REFERENCES clients(id)
	);

	-- Import looks clients up by phone
	CREATE INDEX IF NOT EXISTS idx_clients_phone ON clients(phone);

	-- Renewal selection and dashboard order by expiry
	CREATE INDEX IF NOT EXISTS idx_policies_expiry ON policies(expiry_date);
	CREATE INDEX IF NOT EXISTS idx_policies_client ON policies(client_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CLIENTS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddClient inserts a client and sets its ID.
func (s *Store) AddClient(ctx context.Context, c *crm.Client) error {
	return insertClient(ctx, s.db, c)
}

func insertClient(ctx context.Context, db execer, c *crm.Client) error {
	res, err := db.ExecContext(ctx,
		"INSERT INTO clients (name, phone, email, notes) VALUES (?, ?, ?, ?)",
		c.Name, nullString(c.Phone), nullString(c.Email), nullString(c.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read client id: %w", err)
	}
	c.ID = crm.ClientID(id)
	return nil
}

// GetClient retrieves a client by ID.
func (s *Store) GetClient(ctx context.Context, id crm.ClientID) (*crm.Client, error) {
	var c crm.Client
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(notes, '')
		 FROM clients WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Notes)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// ListClients returns all clients ordered by ID.
func (s *Store) ListClients(ctx context.Context) ([]crm.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(notes, '')
		 FROM clients ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []crm.Client{}
	for rows.Next() {
		var c crm.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpsertClientByPhone updates name and email of the first client with the
// same phone, or inserts a new client.
func (s *Store) UpsertClientByPhone(ctx context.Context, c *crm.Client) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// A blank phone is not a key; such rows always insert.
	var id int64
	err = sql.ErrNoRows
	if c.Phone != "" {
		err = tx.QueryRowContext(ctx,
			"SELECT id FROM clients WHERE phone = ? ORDER BY id LIMIT 1", c.Phone,
		).Scan(&id)
	}

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := insertClient(ctx, tx, c); err != nil {
			return false, err
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("failed to look up client by phone: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			"UPDATE clients SET name = ?, email = ? WHERE id = ?",
			c.Name, nullString(c.Email), id,
		); err != nil {
			return false, fmt.Errorf("failed to update client: %w", err)
		}
		c.ID = crm.ClientID(id)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// =============================================================================
// POLICIES
// =============================================================================

// AddPolicy inserts a policy and sets its ID.
func (s *Store) AddPolicy(ctx context.Context, p *crm.Policy) error {
	p.Normalize()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO policies
		(client_id, policy_no, insurer, policy_type, issued_date, expiry_date, premium, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ClientID,
		p.PolicyNo,
		p.Insurer,
		p.PolicyType,
		nullString(p.IssuedDate),
		nullString(p.ExpiryDate),
		p.Premium.InexactFloat64(),
		p.Status,
		nullString(p.Notes),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: %d (%v)", crm.ErrClientNotFound, p.ClientID, err)
		}
		return fmt.Errorf("failed to insert policy: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read policy id: %w", err)
	}
	p.ID = crm.PolicyID(id)
	return nil
}

// ListPolicies returns every policy joined with its client, ordered by ID.
func (s *Store) ListPolicies(ctx context.Context) ([]crm.PolicyView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.client_id,
		       COALESCE(p.policy_no, ''), COALESCE(p.insurer, ''), COALESCE(p.policy_type, ''),
		       COALESCE(p.issued_date, ''), COALESCE(p.expiry_date, ''),
		       COALESCE(p.premium, 0), COALESCE(p.status, 'Active'), COALESCE(p.notes, ''),
		       c.name, COALESCE(c.phone, '')
		FROM policies p
		JOIN clients c ON c.id = p.client_id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	policies := []crm.PolicyView{}
	for rows.Next() {
		var v crm.PolicyView
		var premium float64
		if err := rows.Scan(
			&v.ID, &v.ClientID,
			&v.PolicyNo, &v.Insurer, &v.PolicyType,
			&v.IssuedDate, &v.ExpiryDate,
			&premium, &v.Status, &v.Notes,
			&v.ClientName, &v.ClientPhone,
		); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		v.Premium = decimal.NewFromFloat(premium)
		policies = append(policies, v)
	}
	return policies, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
