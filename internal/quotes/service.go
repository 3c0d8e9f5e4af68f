package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/orcamento/internal/observability"
	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

const maxCreateAttempts = 5

// Invalidator drops cached reporting data for a company after its quotes change.
type Invalidator interface {
	Invalidate(ctx context.Context, companyID int64) error
}

// Service implements quote lifecycle operations. Every write runs in one transaction.
type Service struct {
	repo        Repository
	logger      *slog.Logger
	metrics     *observability.Metrics
	invalidator Invalidator
	clock       func() time.Time
}

// NewService constructs a Service. metrics and invalidator may be nil.
func NewService(repo Repository, logger *slog.Logger, metrics *observability.Metrics, invalidator Invalidator) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, metrics: metrics, invalidator: invalidator, clock: time.Now}
}

// List returns a page of quotes, newest first.
func (s *Service) List(ctx context.Context, tenant shared.TenantContext, filter ListFilter) ([]ListEntry, shared.Pagination, error) {
	if err := tenant.Validate(); err != nil {
		return nil, shared.Pagination{}, err
	}
	entries, total, err := s.repo.List(ctx, tenant.CompanyID, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list quotes: %w", err)
	}
	return entries, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get loads a quote with its items.
func (s *Service) Get(ctx context.Context, tenant shared.TenantContext, id int64) (Quote, error) {
	if err := tenant.Validate(); err != nil {
		return Quote{}, err
	}
	if id <= 0 {
		return Quote{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, tenant.CompanyID, id)
}

// Create validates the payload, assigns the next number for the current year and
// stores the header with its items atomically. A lost numbering race is retried.
func (s *Service) Create(ctx context.Context, tenant shared.TenantContext, form QuoteForm) (Quote, error) {
	if err := tenant.Validate(); err != nil {
		return Quote{}, err
	}
	quote, drafts, err := form.toQuote(tenant)
	if err != nil {
		return Quote{}, err
	}

	var id int64
	for attempt := 1; ; attempt++ {
		id, err = s.create(ctx, quote, drafts)
		if err == nil {
			break
		}
		if !db.IsRetryable(err) || attempt == maxCreateAttempts {
			return Quote{}, fmt.Errorf("create quote: %w", err)
		}
		s.metrics.NumberRetried()
		s.logger.Warn("quote number conflict, retrying",
			slog.Int64("company_id", tenant.CompanyID),
			slog.Int("attempt", attempt),
		)
	}

	s.metrics.QuoteCreated()
	s.invalidate(ctx, tenant.CompanyID)
	return s.repo.Get(ctx, tenant.CompanyID, id)
}

func (s *Service) create(ctx context.Context, quote Quote, drafts []draftItem) (int64, error) {
	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.CheckClient(ctx, quote.CompanyID, quote.ClientID); err != nil {
			return err
		}
		items, err := priceItems(ctx, tx, quote.CompanyID, drafts)
		if err != nil {
			return err
		}

		// Year and month share one clock reading.
		quote.CreatedAt = s.clock()
		quote.Year = quote.CreatedAt.Year()
		quote.Month = int(quote.CreatedAt.Month())
		quote.Number, err = tx.AssignNumber(ctx, quote.CompanyID, quote.Year)
		if err != nil {
			return err
		}
		id, err = tx.CreateQuote(ctx, quote)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
		return insertItems(ctx, tx, id, items)
	})
	return id, err
}

// Update replaces the header and all items. Number, year and creator never change.
func (s *Service) Update(ctx context.Context, tenant shared.TenantContext, id int64, form QuoteForm) (Quote, error) {
	if err := tenant.Validate(); err != nil {
		return Quote{}, err
	}
	quote, drafts, err := form.toQuote(tenant)
	if err != nil {
		return Quote{}, err
	}
	quote.ID = id

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockQuote(ctx, tenant.CompanyID, id); err != nil {
			return err
		}
		if err := tx.CheckClient(ctx, tenant.CompanyID, quote.ClientID); err != nil {
			return err
		}
		items, err := priceItems(ctx, tx, tenant.CompanyID, drafts)
		if err != nil {
			return err
		}
		if err := tx.UpdateQuote(ctx, quote); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		if err := tx.DeleteItems(ctx, tenant.CompanyID, id); err != nil {
			return fmt.Errorf("clear quote items: %w", err)
		}
		return insertItems(ctx, tx, id, items)
	})
	if err != nil {
		return Quote{}, fmt.Errorf("update quote: %w", err)
	}

	s.invalidate(ctx, tenant.CompanyID)
	return s.repo.Get(ctx, tenant.CompanyID, id)
}

// Delete removes the quote's items and then the quote in one transaction.
func (s *Service) Delete(ctx context.Context, tenant shared.TenantContext, id int64) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockQuote(ctx, tenant.CompanyID, id); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, tenant.CompanyID, id); err != nil {
			return fmt.Errorf("delete quote items: %w", err)
		}
		return tx.DeleteQuote(ctx, tenant.CompanyID, id)
	})
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	s.invalidate(ctx, tenant.CompanyID)
	return nil
}

// GetItem returns one line item with the totals of its quote.
func (s *Service) GetItem(ctx context.Context, tenant shared.TenantContext, itemID int64) (LineItem, Totals, error) {
	if err := tenant.Validate(); err != nil {
		return LineItem{}, Totals{}, err
	}
	item, err := s.repo.GetItem(ctx, tenant.CompanyID, itemID)
	if err != nil {
		return LineItem{}, Totals{}, err
	}
	quote, err := s.repo.Get(ctx, tenant.CompanyID, item.QuoteID)
	if err != nil {
		return LineItem{}, Totals{}, err
	}
	return item, quote.Totals(), nil
}

// AddItem appends a line to an existing quote.
func (s *Service) AddItem(ctx context.Context, tenant shared.TenantContext, quoteID int64, form ItemForm) (LineItem, Totals, error) {
	if err := tenant.Validate(); err != nil {
		return LineItem{}, Totals{}, err
	}
	draft, verr := form.draft("item")
	if verr != nil {
		return LineItem{}, Totals{}, verr
	}

	var itemID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockQuote(ctx, tenant.CompanyID, quoteID); err != nil {
			return err
		}
		items, err := priceItems(ctx, tx, tenant.CompanyID, []draftItem{draft})
		if err != nil {
			return err
		}
		item := items[0]
		item.QuoteID = quoteID
		item.CompanyID = tenant.CompanyID
		itemID, err = tx.InsertItem(ctx, item)
		if err != nil {
			return fmt.Errorf("insert quote item: %w", err)
		}
		return nil
	})
	if err != nil {
		return LineItem{}, Totals{}, fmt.Errorf("add quote item: %w", err)
	}
	s.invalidate(ctx, tenant.CompanyID)
	return s.GetItem(ctx, tenant, itemID)
}

// UpdateItem rewrites one line. An omitted unit price takes a fresh catalog snapshot.
func (s *Service) UpdateItem(ctx context.Context, tenant shared.TenantContext, itemID int64, form ItemForm) (LineItem, Totals, error) {
	if err := tenant.Validate(); err != nil {
		return LineItem{}, Totals{}, err
	}
	draft, verr := form.draft("item")
	if verr != nil {
		return LineItem{}, Totals{}, verr
	}
	current, err := s.repo.GetItem(ctx, tenant.CompanyID, itemID)
	if err != nil {
		return LineItem{}, Totals{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockQuote(ctx, tenant.CompanyID, current.QuoteID); err != nil {
			return err
		}
		items, err := priceItems(ctx, tx, tenant.CompanyID, []draftItem{draft})
		if err != nil {
			return err
		}
		item := items[0]
		item.ID = itemID
		item.QuoteID = current.QuoteID
		item.CompanyID = tenant.CompanyID
		if err := tx.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update quote item: %w", err)
		}
		return nil
	})
	if err != nil {
		return LineItem{}, Totals{}, fmt.Errorf("update quote item: %w", err)
	}
	s.invalidate(ctx, tenant.CompanyID)
	return s.GetItem(ctx, tenant, itemID)
}

// DeleteItem removes one line and returns the recomputed totals of its quote.
func (s *Service) DeleteItem(ctx context.Context, tenant shared.TenantContext, itemID int64) (int64, Totals, error) {
	if err := tenant.Validate(); err != nil {
		return 0, Totals{}, err
	}
	current, err := s.repo.GetItem(ctx, tenant.CompanyID, itemID)
	if err != nil {
		return 0, Totals{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockQuote(ctx, tenant.CompanyID, current.QuoteID); err != nil {
			return err
		}
		return tx.DeleteItem(ctx, tenant.CompanyID, itemID)
	})
	if err != nil {
		return 0, Totals{}, fmt.Errorf("delete quote item: %w", err)
	}
	s.invalidate(ctx, tenant.CompanyID)

	quote, err := s.repo.Get(ctx, tenant.CompanyID, current.QuoteID)
	if err != nil {
		return 0, Totals{}, err
	}
	return quote.ID, quote.Totals(), nil
}

// priceItems checks that every reference belongs to the company and fills in the
// catalog price when the payload did not carry one.
func priceItems(ctx context.Context, tx TxRepository, companyID int64, drafts []draftItem) ([]LineItem, error) {
	items := make([]LineItem, 0, len(drafts))
	for _, d := range drafts {
		price, err := tx.CatalogPrice(ctx, companyID, d.Ref)
		if err != nil {
			return nil, err
		}
		if d.UnitPrice.Valid {
			price = d.UnitPrice.Decimal
		}
		items = append(items, LineItem{
			CompanyID: companyID,
			Ref:       d.Ref,
			Quantity:  d.Quantity,
			UnitPrice: price,
		})
	}
	return items, nil
}

func insertItems(ctx context.Context, tx TxRepository, quoteID int64, items []LineItem) error {
	for _, item := range items {
		item.QuoteID = quoteID
		if _, err := tx.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert quote item: %w", err)
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, companyID int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, companyID); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("dashboard cache invalidation failed", slog.Int64("company_id", companyID), slog.Any("error", err))
	}
}
