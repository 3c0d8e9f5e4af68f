package shared

import "context"

// TenantContext identifies the caller and the company every scoped operation runs against.
type TenantContext struct {
	CompanyID int64
	UserID    int64
}

// Validate reports which half of the tenant pair is missing.
func (t TenantContext) Validate() error {
	if t.UserID <= 0 {
		return ErrUnauthenticated
	}
	if t.CompanyID <= 0 {
		return ErrNoTenantSelected
	}
	return nil
}

type tenantContextKey struct{}

type userContextKey struct{}

// ContextWithTenant stores the resolved tenant in context.
func ContextWithTenant(ctx context.Context, tenant TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}

// TenantFromContext extracts the tenant and validates it.
func TenantFromContext(ctx context.Context) (TenantContext, error) {
	tenant, ok := ctx.Value(tenantContextKey{}).(TenantContext)
	if !ok {
		if userID := UserFromContext(ctx); userID > 0 {
			return TenantContext{UserID: userID}, ErrNoTenantSelected
		}
		return TenantContext{}, ErrUnauthenticated
	}
	return tenant, tenant.Validate()
}

// ContextWithUser stores the authenticated user id.
func ContextWithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserFromContext returns the authenticated user id or zero.
func UserFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userContextKey{}).(int64)
	return id
}
