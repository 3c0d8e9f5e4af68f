package clients

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

const (
	defaultSuggestions = 20
	maxSuggestions     = 50
)

// Service implements tenant scoped client management.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of the tenant's clients.
func (s *Service) List(ctx context.Context, tenant shared.TenantContext, filter ListFilter) ([]Client, shared.Pagination, error) {
	if err := tenant.Validate(); err != nil {
		return nil, shared.Pagination{}, err
	}
	clients, total, err := s.repo.List(ctx, tenant.CompanyID, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list clients: %w", err)
	}
	return clients, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get loads one client owned by the tenant.
func (s *Service) Get(ctx context.Context, tenant shared.TenantContext, id int64) (Client, error) {
	if err := tenant.Validate(); err != nil {
		return Client{}, err
	}
	if id <= 0 {
		return Client{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, tenant.CompanyID, id)
}

// Create registers a client for the tenant.
func (s *Service) Create(ctx context.Context, tenant shared.TenantContext, form ClientForm) (Client, error) {
	if err := tenant.Validate(); err != nil {
		return Client{}, err
	}
	client := normalize(form.toClient(tenant.CompanyID))
	if err := validate(client); err != nil {
		return Client{}, err
	}
	created, err := s.repo.Create(ctx, client)
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

// Update edits a client owned by the tenant.
func (s *Service) Update(ctx context.Context, tenant shared.TenantContext, id int64, form ClientForm) (Client, error) {
	if err := tenant.Validate(); err != nil {
		return Client{}, err
	}
	client := normalize(form.toClient(tenant.CompanyID))
	client.ID = id
	if err := validate(client); err != nil {
		return Client{}, err
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, tenant.CompanyID, id)
}

// Delete removes a client. Clients referenced by quotes fail with a conflict.
func (s *Service) Delete(ctx context.Context, tenant shared.TenantContext, id int64) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenant.CompanyID, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// Autocomplete matches clients by name or tax id, or returns the single client when id is set.
func (s *Service) Autocomplete(ctx context.Context, tenant shared.TenantContext, term string, id int64, limit int) ([]Suggestion, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if id > 0 {
		c, err := s.repo.Get(ctx, tenant.CompanyID, id)
		if err != nil {
			if shared.KindOf(err) == shared.KindNotFound {
				return []Suggestion{}, nil
			}
			return nil, err
		}
		return []Suggestion{suggestionOf(c)}, nil
	}
	switch {
	case limit <= 0:
		limit = defaultSuggestions
	case limit > maxSuggestions:
		limit = maxSuggestions
	}
	found, err := s.repo.Search(ctx, tenant.CompanyID, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	out := make([]Suggestion, 0, len(found))
	for _, c := range found {
		out = append(out, suggestionOf(c))
	}
	return out, nil
}
