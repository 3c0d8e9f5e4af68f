package catalog

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

const (
	defaultSuggestions = 20
	maxSuggestions     = 50
)

// Service manages a tenant's products and services.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of items of the given kind.
func (s *Service) List(ctx context.Context, tenant shared.TenantContext, kind Kind, filter ListFilter) ([]Item, shared.Pagination, error) {
	if err := tenant.Validate(); err != nil {
		return nil, shared.Pagination{}, err
	}
	items, total, err := s.repo.List(ctx, tenant.CompanyID, kind, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list %s: %w", kind, err)
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get loads an item owned by the tenant.
func (s *Service) Get(ctx context.Context, tenant shared.TenantContext, kind Kind, id int64) (Item, error) {
	if err := tenant.Validate(); err != nil {
		return Item{}, err
	}
	if id <= 0 {
		return Item{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, tenant.CompanyID, kind, id)
}

// Create registers a new item.
func (s *Service) Create(ctx context.Context, tenant shared.TenantContext, kind Kind, form ItemForm) (Item, error) {
	if err := tenant.Validate(); err != nil {
		return Item{}, err
	}
	item := normalize(form.toItem(kind, tenant.CompanyID))
	if err := validate(item); err != nil {
		return Item{}, err
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return Item{}, fmt.Errorf("create %s: %w", kind, err)
	}
	return created, nil
}

// Update edits an item. Prices already copied into quote lines are unaffected.
func (s *Service) Update(ctx context.Context, tenant shared.TenantContext, kind Kind, id int64, form ItemForm) (Item, error) {
	if err := tenant.Validate(); err != nil {
		return Item{}, err
	}
	item := normalize(form.toItem(kind, tenant.CompanyID))
	item.ID = id
	if err := validate(item); err != nil {
		return Item{}, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return Item{}, fmt.Errorf("update %s: %w", kind, err)
	}
	return s.repo.Get(ctx, tenant.CompanyID, kind, id)
}

// Delete removes an item. Items referenced by quote lines fail with a conflict.
func (s *Service) Delete(ctx context.Context, tenant shared.TenantContext, kind Kind, id int64) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenant.CompanyID, kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

// Autocomplete searches products and services together for the quote editor.
func (s *Service) Autocomplete(ctx context.Context, tenant shared.TenantContext, term string, limit int) ([]Suggestion, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultSuggestions
	case limit > maxSuggestions:
		limit = maxSuggestions
	}
	items, err := s.repo.Search(ctx, tenant.CompanyID, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	out := make([]Suggestion, 0, len(items))
	for _, item := range items {
		out = append(out, Suggestion{ID: item.ID, Label: item.Name, Kind: item.Kind, Price: shared.NewMoney(item.Price)})
	}
	return out, nil
}
