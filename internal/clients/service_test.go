package clients

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	clients map[int64]Client
	nextID  int64

	// Error injection
	deleteError error
	searchError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{clients: make(map[int64]Client), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, companyID int64, filter ListFilter) ([]Client, int, error) {
	out := []Client{}
	for _, c := range m.sorted() {
		if c.CompanyID != companyID {
			continue
		}
		if filter.Search != "" && !strings.Contains(c.searchKey(), shared.NormalizeTerm(filter.Search)) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, companyID, id int64) (Client, error) {
	c, ok := m.clients[id]
	if !ok || c.CompanyID != companyID {
		return Client{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) Create(ctx context.Context, client Client) (Client, error) {
	client.ID = m.nextID
	m.nextID++
	m.clients[client.ID] = client
	return client, nil
}

func (m *mockRepository) Update(ctx context.Context, client Client) error {
	existing, ok := m.clients[client.ID]
	if !ok || existing.CompanyID != client.CompanyID {
		return shared.ErrNotFound
	}
	m.clients[client.ID] = client
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, companyID, id int64) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	c, ok := m.clients[id]
	if !ok || c.CompanyID != companyID {
		return shared.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *mockRepository) Search(ctx context.Context, companyID int64, term string, limit int) ([]Client, error) {
	if m.searchError != nil {
		return nil, m.searchError
	}
	out := []Client{}
	for _, c := range m.sorted() {
		if c.CompanyID != companyID || !strings.Contains(c.searchKey(), shared.NormalizeTerm(term)) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockRepository) sorted() []Client {
	out := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var (
	tenantA = shared.TenantContext{CompanyID: 1, UserID: 10}
	tenantB = shared.TenantContext{CompanyID: 2, UserID: 20}
)

func TestCreateNormalizesAndValidates(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	client, err := svc.Create(ctx, tenantA, ClientForm{LegalName: "  Padaria São João  ", Email: " Contato@Padaria.com "})
	require.NoError(t, err)
	assert.Equal(t, "Padaria São João", client.LegalName)
	assert.Equal(t, "contato@padaria.com", client.Email)
	assert.Equal(t, int64(1), client.CompanyID)

	_, err = svc.Create(ctx, tenantA, ClientForm{LegalName: " "})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "razao_social", verr.Fields[0].Field)
}

func TestCreateRequiresTenant(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), shared.TenantContext{UserID: 1}, ClientForm{LegalName: "x"})
	assert.ErrorIs(t, err, shared.ErrNoTenantSelected)
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	client, err := svc.Create(ctx, tenantA, ClientForm{LegalName: "Acme"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, tenantB, client.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Update(ctx, tenantB, client.ID, ClientForm{LegalName: "Hijack"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(ctx, tenantB, client.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.Get(ctx, tenantA, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.LegalName)
}

func TestDeleteReferencedClientConflicts(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()
	client, err := svc.Create(ctx, tenantA, ClientForm{LegalName: "Acme"})
	require.NoError(t, err)

	repo.deleteError = shared.ErrConflict
	err = svc.Delete(ctx, tenantA, client.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestAutocompleteByTermIsAccentInsensitive(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	_, err := svc.Create(ctx, tenantA, ClientForm{LegalName: "Construções Lima", TaxID: "11.222.333/0001-44"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, tenantA, ClientForm{LegalName: "Mercado Central"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, tenantB, ClientForm{LegalName: "Construcoes Outra"})
	require.NoError(t, err)

	got, err := svc.Autocomplete(ctx, tenantA, "construcoes", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Construções Lima", got[0].Label)
	assert.Equal(t, "11.222.333/0001-44", got[0].TaxID)

	got, err = svc.Autocomplete(ctx, tenantA, "11.222", 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAutocompleteByID(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	client, err := svc.Create(ctx, tenantA, ClientForm{LegalName: "Acme"})
	require.NoError(t, err)

	got, err := svc.Autocomplete(ctx, tenantA, "", client.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, client.ID, got[0].ID)

	got, err = svc.Autocomplete(ctx, tenantB, "", client.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAutocompleteClampsLimit(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		_, err := svc.Create(ctx, tenantA, ClientForm{LegalName: "Cliente"})
		require.NoError(t, err)
	}

	got, err := svc.Autocomplete(ctx, tenantA, "cliente", 0, 500)
	require.NoError(t, err)
	assert.Len(t, got, maxSuggestions)

	got, err = svc.Autocomplete(ctx, tenantA, "cliente", 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, defaultSuggestions)

	repo.searchError = errors.New("db down")
	_, err = svc.Autocomplete(ctx, tenantA, "cliente", 0, 0)
	assert.Error(t, err)
}

func TestListReturnsPagination(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	for _, name := range []string{"Alfa", "Beta", "Gama"} {
		_, err := svc.Create(ctx, tenantA, ClientForm{LegalName: name})
		require.NoError(t, err)
	}

	clients, page, err := svc.List(ctx, tenantA, ListFilter{Search: "a"})
	require.NoError(t, err)
	assert.Len(t, clients, 3)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
}
