package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTermFoldsAccents(t *testing.T) {
	assert.Equal(t, "orcamento servico", NormalizeTerm("  Orçamento   SERVIÇO "))
	assert.Equal(t, "joao", NormalizeTerm("João"))
	assert.Equal(t, "", NormalizeTerm("   "))
}

func TestSearchKeySkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "acme ltda 12.345", SearchKey("ACME Ltda", "", "12.345"))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off%`, LikePattern("50% OFF"))
	assert.Equal(t, `%a\_b%`, LikePattern("a_b"))
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	verr := NewValidationError(ReasonMissingReference, "itens[0].id_item", "item reference is required")
	wrapped := fmt.Errorf("create quote: %w", verr)

	require.True(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, KindValidation, KindOf(wrapped))

	var target *ValidationError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, ReasonMissingReference, target.Reason)
	assert.Contains(t, verr.Error(), "missing_reference")
}

func TestValidationErrorErrNilWhenEmpty(t *testing.T) {
	v := &ValidationError{Reason: ReasonInvalidField}
	assert.NoError(t, v.Err())
	v.Add("nome", "required")
	assert.Error(t, v.Err())
}

func TestKindOf(t *testing.T) {
	cases := map[error]Kind{
		ErrNotFound:                       KindNotFound,
		ErrForbidden:                      KindForbidden,
		fmt.Errorf("x: %w", ErrConflict):  KindConflict,
		ErrUnauthenticated:                KindConfiguration,
		ErrNoTenantSelected:               KindConfiguration,
		errors.New("boom"):                KindInternal,
	}
	for err, kind := range cases {
		assert.Equal(t, kind, KindOf(err), err.Error())
	}
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestTenantFromContext(t *testing.T) {
	_, err := TenantFromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ctx := ContextWithUser(context.Background(), 7)
	tenant, err := TenantFromContext(ctx)
	assert.ErrorIs(t, err, ErrNoTenantSelected)
	assert.Equal(t, int64(7), tenant.UserID)

	ctx = ContextWithTenant(ctx, TenantContext{CompanyID: 3, UserID: 7})
	tenant, err = TenantFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, TenantContext{CompanyID: 3, UserID: 7}, tenant)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}, p)
	assert.Equal(t, 40, Offset(3, 20))
	_, perPage := NormalizePage(1, 1000)
	assert.Equal(t, 100, perPage)
}

func TestMoneyAndQuantityJSON(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"total": NewMoney(decimal.RequireFromString("25")),
		"qtd":   Quantity{decimal.RequireFromString("1.500")},
		"neg":   NewMoney(decimal.RequireFromString("-3.005")),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"25.00","qtd":"1.5","neg":"-3.01"}`, string(raw))
}
