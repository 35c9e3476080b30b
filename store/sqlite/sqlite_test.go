package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-crm/crm"
	"github.com/warp/renewal-crm/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addClient(t *testing.T, s *sqlite.Store, name, phone string) crm.Client {
	c := crm.Client{Name: name, Phone: phone}
	require.NoError(t, s.AddClient(context.Background(), &c))
	return c
}

// =============================================================================
// CLIENTS
// =============================================================================

func TestClients_AddGetList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	asha := addClient(t, s, "Asha", "+911")
	addClient(t, s, "Ravi", "")

	got, err := s.GetClient(ctx, asha.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, "+911", got.Phone)

	missing, err := s.GetClient(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	clients, err := s.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "", clients[1].Phone)
}

func TestUpsertClientByPhone(t *testing.T) {
	// GIVEN: "Old" with phone +911234
	s := newTestStore(t)
	ctx := context.Background()
	old := addClient(t, s, "Old", "+911234")

	// WHEN: upserting "New" with the same phone
	c := crm.Client{Name: "New", Phone: "+911234", Email: "new@x.in"}
	created, err := s.UpsertClientByPhone(ctx, &c)

	// THEN: the existing row is updated in place
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, old.ID, c.ID)

	clients, err := s.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "New", clients[0].Name)
	assert.Equal(t, "new@x.in", clients[0].Email)

	// AND: a different phone inserts
	other := crm.Client{Name: "Other", Phone: "+919999"}
	created, err = s.UpsertClientByPhone(ctx, &other)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, old.ID, other.ID)
}

func TestUpsertClientByPhone_BlankPhoneAlwaysInserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addClient(t, s, "First", "")

	c := crm.Client{Name: "Second"}
	created, err := s.UpsertClientByPhone(ctx, &c)

	require.NoError(t, err)
	assert.True(t, created)
	clients, _ := s.ListClients(ctx)
	assert.Len(t, clients, 2)
}

// =============================================================================
// POLICIES
// =============================================================================

func TestAddPolicy_UnknownClient(t *testing.T) {
	s := newTestStore(t)

	p := crm.Policy{ClientID: 42, PolicyNo: "P1", ExpiryDate: "2025-01-01"}
	err := s.AddPolicy(context.Background(), &p)

	assert.ErrorIs(t, err, crm.ErrClientNotFound)
	assert.True(t, crm.IsNotFound(err))
}

func TestListPolicies_JoinsClientAndAppliesDefaults(t *testing.T) {
	// GIVEN: a client with one policy, negative premium, no status
	s := newTestStore(t)
	ctx := context.Background()
	asha := addClient(t, s, "Asha", "+911")

	p := crm.Policy{
		ClientID:   asha.ID,
		PolicyNo:   "P1",
		Insurer:    "Acme",
		PolicyType: "Health",
		IssuedDate: "2024-03-05",
		ExpiryDate: "2025-03-05",
		Premium:    decimal.NewFromInt(-10),
	}
	require.NoError(t, s.AddPolicy(ctx, &p))
	q := crm.Policy{ClientID: asha.ID, PolicyNo: "P2", Premium: decimal.RequireFromString("1200.5")}
	require.NoError(t, s.AddPolicy(ctx, &q))

	// WHEN: listing
	policies, err := s.ListPolicies(ctx)

	// THEN: client fields are joined and defaults applied
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, p.ID, policies[0].ID)
	assert.Equal(t, "Asha", policies[0].ClientName)
	assert.Equal(t, "+911", policies[0].ClientPhone)
	assert.Equal(t, crm.StatusActive, policies[0].Status)
	assert.True(t, policies[0].Premium.IsZero())
	assert.Equal(t, "2025-03-05", policies[0].ExpiryDate)

	assert.Equal(t, "", policies[1].ExpiryDate)
	assert.True(t, decimal.RequireFromString("1200.5").Equal(policies[1].Premium))
}

func TestNew_CreatesDatabaseFile(t *testing.T) {
	path := t.TempDir() + "/nested/crm.db"

	s, err := sqlite.New(path)
	require.NoError(t, err)
	c := crm.Client{Name: "Asha", Phone: "+911"}
	require.NoError(t, s.AddClient(context.Background(), &c))
	require.NoError(t, s.Close())

	// Reopening keeps the data
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()
	clients, err := s.ListClients(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}
