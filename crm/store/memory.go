// Package store provides crm.Store implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/renewal-crm/crm"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

var _ crm.Store = (*Memory)(nil)

type Memory struct {
	mu           sync.RWMutex
	clients      []crm.Client
	policies     []crm.Policy
	nextClientID crm.ClientID
	nextPolicyID crm.PolicyID
}

func NewMemory() *Memory {
	return &Memory{nextClientID: 1, nextPolicyID: 1}
}

// AddClient inserts a client and assigns its ID.
func (m *Memory) AddClient(_ context.Context, c *crm.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertClientLocked(c)
	return nil
}

func (m *Memory) insertClientLocked(c *crm.Client) {
	c.ID = m.nextClientID
	m.nextClientID++
	m.clients = append(m.clients, *c)
}

// GetClient returns nil when the client does not exist.
func (m *Memory) GetClient(_ context.Context, id crm.ClientID) (*crm.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.clientIndexLocked(id); i >= 0 {
		c := m.clients[i]
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) clientIndexLocked(id crm.ClientID) int {
	for i := range m.clients {
		if m.clients[i].ID == id {
			return i
		}
	}
	return -1
}

// ListClients returns clients in insertion order.
func (m *Memory) ListClients(_ context.Context) ([]crm.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]crm.Client, len(m.clients))
	copy(out, m.clients)
	return out, nil
}

// UpsertClientByPhone updates the first client with a matching phone or
// inserts a new one. A blank phone never matches.
func (m *Memory) UpsertClientByPhone(_ context.Context, c *crm.Client) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.clients {
		if c.Phone != "" && m.clients[i].Phone == c.Phone {
			m.clients[i].Name = c.Name
			m.clients[i].Email = c.Email
			c.ID = m.clients[i].ID
			return false, nil
		}
	}
	m.insertClientLocked(c)
	return true, nil
}

// AddPolicy inserts a policy. The client must exist.
func (m *Memory) AddPolicy(_ context.Context, p *crm.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clientIndexLocked(p.ClientID) < 0 {
		return fmt.Errorf("%w: %d", crm.ErrClientNotFound, p.ClientID)
	}
	p.Normalize()
	p.ID = m.nextPolicyID
	m.nextPolicyID++
	m.policies = append(m.policies, *p)
	return nil
}

// ListPolicies joins every policy with its client, in insertion order.
func (m *Memory) ListPolicies(_ context.Context) ([]crm.PolicyView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]crm.PolicyView, 0, len(m.policies))
	for _, p := range m.policies {
		c := m.clients[m.clientIndexLocked(p.ClientID)]
		out = append(out, crm.PolicyView{Policy: p, ClientName: c.Name, ClientPhone: c.Phone})
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
