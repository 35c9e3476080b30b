/*
store.go - Persistence interface for clients and policies

PURPOSE:
  Defines the boundary between the CRM logic and the database. Two
  related tables: clients and policies (many policies to one client).

WRITE RULES:
  - Clients are created by manual entry or by import upsert
  - Import upsert overwrites name/email when the phone already exists
  - Policies are insert-only; nothing here updates or deletes them
  - A policy must reference an existing client (ErrClientNotFound)

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - crm/store/memory.go: In-memory, for tests
*/
package crm

import "context"

// Store handles persistence of clients and policies.
type Store interface {
	// AddClient inserts a client and sets its ID.
	AddClient(ctx context.Context, c *Client) error

	// GetClient returns nil, nil when the client does not exist.
	GetClient(ctx context.Context, id ClientID) (*Client, error)

	// ListClients returns all clients ordered by ID.
	ListClients(ctx context.Context) ([]Client, error)

	// UpsertClientByPhone updates name and email of the first client with the
	// same phone, or inserts a new one. A blank phone never matches.
	// c.ID is set either way.
	UpsertClientByPhone(ctx context.Context, c *Client) (created bool, err error)

	// AddPolicy inserts a policy and sets its ID.
	AddPolicy(ctx context.Context, p *Policy) error

	// ListPolicies returns every policy joined with its client.
	ListPolicies(ctx context.Context) ([]PolicyView, error)

	Close() error
}
