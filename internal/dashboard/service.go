package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/orcamento/internal/observability"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// AlertWindowDays is how far ahead of today a delivery forecast raises an alert.
const AlertWindowDays = 3

// loadTimeout bounds a shared summary load once it no longer follows the caller that started it.
const loadTimeout = 30 * time.Second

// CompanyLister enumerates the companies a warmup visits.
type CompanyLister interface {
	CompanyIDs(ctx context.Context) ([]int64, error)
}

// Service assembles the dashboard summary behind the versioned cache.
type Service struct {
	repo      Repository
	companies CompanyLister
	cache     *Cache
	metrics   *observability.Metrics
	logger    *slog.Logger
	group     singleflight.Group
	clock     func() time.Time
}

// NewService wires the repository with the cache. companies, cache and metrics may be nil.
func NewService(repo Repository, companies CompanyLister, cache *Cache, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, companies: companies, cache: cache, metrics: metrics, logger: logger, clock: time.Now}
}

// Summary returns the tenant's dashboard as seen on the given day.
func (s *Service) Summary(ctx context.Context, tenant shared.TenantContext, today time.Time) (Summary, error) {
	if err := tenant.Validate(); err != nil {
		return Summary{}, err
	}
	day := civilDate(today)
	key, err := s.cache.BuildKey(ctx, tenant.CompanyID, "summary", day.Format(time.DateOnly))
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.Int64("company_id", tenant.CompanyID), slog.Any("error", err))
		return s.compute(ctx, tenant.CompanyID, day)
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(loadCtx, loadTimeout)
		defer cancel()
		var summary Summary
		hit, err := s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
			return s.compute(ctx, tenant.CompanyID, day)
		})
		if err != nil {
			return Summary{}, err
		}
		s.metrics.DashboardCache(hit)
		return summary, nil
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

// Warm recomputes the company's summary for today and overwrites the cached copy.
func (s *Service) Warm(ctx context.Context, companyID int64) error {
	day := civilDate(s.clock())
	summary, err := s.compute(ctx, companyID, day)
	if err != nil {
		return err
	}
	key, err := s.cache.BuildKey(ctx, companyID, "summary", day.Format(time.DateOnly))
	if err != nil {
		return err
	}
	return s.cache.Store(ctx, key, summary)
}

// WarmAll warms every company and returns how many succeeded.
func (s *Service) WarmAll(ctx context.Context) (int, error) {
	if s.companies == nil {
		return 0, errors.New("dashboard warmup: company lister not configured")
	}
	ids, err := s.companies.CompanyIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list companies: %w", err)
	}
	warmed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if err := s.Warm(ctx, id); err != nil {
			s.logger.Warn("dashboard warmup failed", slog.Int64("company_id", id), slog.Any("error", err))
			continue
		}
		warmed++
	}
	return warmed, nil
}

// Invalidate drops the cached summaries of a company.
func (s *Service) Invalidate(ctx context.Context, companyID int64) error {
	return s.cache.Invalidate(ctx, companyID)
}

func (s *Service) compute(ctx context.Context, companyID int64, day time.Time) (Summary, error) {
	summary := Summary{CompanyID: companyID, Year: day.Year(), GeneratedAt: s.clock().UTC()}
	var (
		total  decimal.Decimal
		months []MonthRow
		alerts []AlertRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.Counts(gctx, companyID)
		summary.Counts = counts
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.TotalValue(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		months, err = s.repo.Monthly(gctx, companyID, day.Year())
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.repo.UpcomingDeliveries(gctx, companyID, day, day.AddDate(0, 0, AlertWindowDays))
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("dashboard summary: %w", err)
	}

	summary.TotalValue = shared.NewMoney(total)
	summary.Monthly = monthBuckets(months)
	summary.Alerts = make([]Alert, 0, len(alerts))
	for _, row := range alerts {
		forecast := civilDate(row.DeliveryForecast)
		summary.Alerts = append(summary.Alerts, Alert{
			QuoteID:          row.QuoteID,
			Number:           row.Number,
			Year:             row.Year,
			ClientName:       row.ClientName,
			DeliveryForecast: forecast.Format(time.DateOnly),
			DaysLeft:         int(forecast.Sub(day).Hours() / 24),
		})
	}
	return summary, nil
}

// monthBuckets always yields twelve buckets, January first.
func monthBuckets(rows []MonthRow) []MonthBucket {
	buckets := make([]MonthBucket, 12)
	for i := range buckets {
		buckets[i] = MonthBucket{Month: i + 1, Label: monthLabels[i], Value: shared.NewMoney(decimal.Zero)}
	}
	for _, row := range rows {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		buckets[row.Month-1].Count = row.Count
		buckets[row.Month-1].Value = shared.NewMoney(row.Value)
	}
	return buckets
}

// civilDate drops the clock part and pins the calendar day to UTC so day arithmetic is exact.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
