package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/odyssey-erp/orcamento/internal/companies"
	"github.com/odyssey-erp/orcamento/internal/platform/httpx"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// DefaultUserHeader carries the user id set by the upstream authentication proxy.
const DefaultUserHeader = "X-Authenticated-User"

// Memberships answers which companies a user may act for.
type Memberships interface {
	IsMember(ctx context.Context, userID, companyID int64) (bool, error)
	DefaultCompany(ctx context.Context, userID int64) (int64, error)
	ListForUser(ctx context.Context, userID int64) ([]companies.Company, error)
}

// Resolver turns an authenticated request into an explicit shared.TenantContext.
type Resolver struct {
	store   *SelectionStore
	members Memberships
	header  string
	logger  *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store *SelectionStore, members Memberships, header string, logger *slog.Logger) *Resolver {
	if header == "" {
		header = DefaultUserHeader
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, members: members, header: header, logger: logger}
}

// Resolve returns the tenant for userID: the stored selection when still valid,
// otherwise the first company linked to the user.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (shared.TenantContext, error) {
	if userID <= 0 {
		return shared.TenantContext{}, shared.ErrUnauthenticated
	}
	tenant := shared.TenantContext{UserID: userID}

	selected, err := r.store.Get(ctx, userID)
	if err != nil {
		r.logger.Warn("load tenant selection", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	if selected > 0 {
		ok, err := r.members.IsMember(ctx, userID, selected)
		if err != nil {
			return tenant, fmt.Errorf("check membership: %w", err)
		}
		if ok {
			tenant.CompanyID = selected
			return tenant, nil
		}
		if err := r.store.Clear(ctx, userID); err != nil {
			r.logger.Warn("clear stale tenant selection", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}

	companyID, err := r.members.DefaultCompany(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNoTenantSelected) {
			return tenant, err
		}
		return tenant, fmt.Errorf("default company: %w", err)
	}
	tenant.CompanyID = companyID
	return tenant, nil
}

// Select stores companyID as the user's current company.
func (r *Resolver) Select(ctx context.Context, userID, companyID int64) error {
	if userID <= 0 {
		return shared.ErrUnauthenticated
	}
	ok, err := r.members.IsMember(ctx, userID, companyID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return shared.ErrForbidden
	}
	return r.store.Set(ctx, userID, companyID)
}

// RequireUser rejects requests without an authenticated user id.
func (r *Resolver) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw := strings.TrimSpace(req.Header.Get(r.header))
		userID, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || userID <= 0 {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, req.WithContext(shared.ContextWithUser(req.Context(), userID)))
	})
}

// RequireTenant resolves the company for the authenticated user. Mount after RequireUser.
func (r *Resolver) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tenant, err := r.Resolve(req.Context(), shared.UserFromContext(req.Context()))
		if err != nil {
			if shared.KindOf(err) == shared.KindInternal {
				r.logger.Error("resolve tenant", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, req.WithContext(shared.ContextWithTenant(req.Context(), tenant)))
	})
}
