package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	var p ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func TestRespondErrorValidationCarriesFields(t *testing.T) {
	rr := httptest.NewRecorder()
	verr := shared.NewValidationError(shared.ReasonAmbiguousReference, "itens[1]", "item references both a product and a service")

	RespondError(rr, fmt.Errorf("create quote: %w", verr))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	p := decodeProblem(t, rr)
	assert.Equal(t, shared.KindValidation, p.Kind)
	assert.Equal(t, shared.ReasonAmbiguousReference, p.Reason)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "itens[1]", p.Errors[0].Field)
}

func TestRespondErrorHidesForbiddenAsNotFound(t *testing.T) {
	forbidden := httptest.NewRecorder()
	RespondError(forbidden, shared.ErrForbidden)
	missing := httptest.NewRecorder()
	RespondError(missing, fmt.Errorf("get client: %w", shared.ErrNotFound))

	assert.Equal(t, http.StatusNotFound, forbidden.Code)
	assert.Equal(t, forbidden.Body.String(), missing.Body.String())
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrConflict, http.StatusConflict},
		{shared.ErrUnauthenticated, http.StatusUnauthorized},
		{shared.ErrNoTenantSelected, http.StatusPreconditionRequired},
		{fmt.Errorf("%w: eof", ErrMalformedBody), http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
	}

	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("password=secret"))
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestRespondErrorConflictHidesStorageDetail(t *testing.T) {
	cause := errors.New(`ERROR: update or delete on table "products" violates foreign key constraint "quote_items_product_fk" (SQLSTATE 23503)`)
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("delete product 1: %w", errors.Join(shared.ErrConflict, cause)))

	assert.Equal(t, http.StatusConflict, rr.Code)
	p := decodeProblem(t, rr)
	assert.Equal(t, shared.KindConflict, p.Kind)
	assert.Equal(t, "resource is referenced or was modified concurrently", p.Detail)
	for _, leak := range []string{"products", "quote_items_product_fk", "SQLSTATE", "delete product"} {
		assert.NotContains(t, rr.Body.String(), leak)
	}
}

type sampleForm struct {
	Name  string `json:"nome" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestDecodeAndValidateUsesJSONNames(t *testing.T) {
	v := NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nome":"","email":"nope"}`))

	var form sampleForm
	err := DecodeAndValidate(req, v, &form)

	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["nome"])
	assert.Equal(t, "must be a valid email", fields["email"])
}

func TestDecodeJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	var form sampleForm
	err := DecodeJSON(req, &form)
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestOKEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, http.StatusCreated, "cliente", map[string]int{"id": 4})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"status":"ok","cliente":{"id":4}}`, rr.Body.String())
}
