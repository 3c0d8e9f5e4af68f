package companies

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Service implements company management and membership checks.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Create registers a company and links the creating user to it.
func (s *Service) Create(ctx context.Context, userID int64, form CompanyForm) (Company, error) {
	if userID <= 0 {
		return Company{}, shared.ErrUnauthenticated
	}
	company := normalize(form.toCompany())
	if err := validate(company); err != nil {
		return Company{}, err
	}
	created, err := s.repo.CreateWithOwner(ctx, company, userID)
	if err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	s.logger.Info("company created", slog.Int64("company_id", created.ID), slog.Int64("user_id", userID))
	return created, nil
}

// Current returns the tenant's selected company.
func (s *Service) Current(ctx context.Context, tenant shared.TenantContext) (Company, error) {
	if err := s.authorize(ctx, tenant); err != nil {
		return Company{}, err
	}
	company, err := s.repo.Get(ctx, tenant.CompanyID)
	if err != nil {
		return Company{}, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// UpdateCurrent edits the tenant's selected company.
func (s *Service) UpdateCurrent(ctx context.Context, tenant shared.TenantContext, form CompanyForm) (Company, error) {
	if err := s.authorize(ctx, tenant); err != nil {
		return Company{}, err
	}
	company := normalize(form.toCompany())
	if err := validate(company); err != nil {
		return Company{}, err
	}
	company.ID = tenant.CompanyID
	if err := s.repo.Update(ctx, company); err != nil {
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return s.repo.Get(ctx, tenant.CompanyID)
}

// AddMember links another user to the tenant's company.
func (s *Service) AddMember(ctx context.Context, tenant shared.TenantContext, userID int64) error {
	if err := s.authorize(ctx, tenant); err != nil {
		return err
	}
	if userID <= 0 {
		return shared.NewValidationError(shared.ReasonInvalidField, "user_id", "must be greater than 0")
	}
	if err := s.repo.Link(ctx, userID, tenant.CompanyID); err != nil {
		return fmt.Errorf("link user: %w", err)
	}
	return nil
}

// ListForUser returns the companies linked to a user.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Company, error) {
	if userID <= 0 {
		return nil, shared.ErrUnauthenticated
	}
	return s.repo.ListForUser(ctx, userID)
}

// IsMember reports whether the user is linked to the company.
func (s *Service) IsMember(ctx context.Context, userID, companyID int64) (bool, error) {
	return s.repo.IsMember(ctx, userID, companyID)
}

// DefaultCompany returns the first company linked to the user.
func (s *Service) DefaultCompany(ctx context.Context, userID int64) (int64, error) {
	return s.repo.FirstForUser(ctx, userID)
}

// CompanyIDs lists every company id, used by background warmups.
func (s *Service) CompanyIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListIDs(ctx)
}

func (s *Service) authorize(ctx context.Context, tenant shared.TenantContext) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	ok, err := s.repo.IsMember(ctx, tenant.UserID, tenant.CompanyID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return shared.ErrForbidden
	}
	return nil
}
