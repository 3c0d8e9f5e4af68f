// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

// ErrMalformedBody marks requests whose body cannot be decoded.
var ErrMalformedBody = errors.New("malformed request body")

const conflictDetail = "resource is referenced or was modified concurrently"

// RespondError maps domain errors to HTTP responses using RFC7807.
// Not-found and forbidden collapse into the same response so existence is not leaked.
func RespondError(w http.ResponseWriter, err error) {
	kind := shared.KindOf(err)
	switch {
	case errors.Is(err, ErrMalformedBody):
		write(w, ProblemDetail{Title: "Bad Request", Status: http.StatusBadRequest, Kind: shared.KindValidation, Detail: err.Error()})
	case kind == shared.KindValidation:
		problem := ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Kind: kind, Detail: err.Error()}
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			problem.Reason = verr.Reason
			problem.Errors = verr.Fields
		}
		write(w, problem)
	case kind == shared.KindNotFound, kind == shared.KindForbidden:
		write(w, ProblemDetail{Title: "Not Found", Status: http.StatusNotFound, Kind: shared.KindNotFound, Detail: "resource not accessible"})
	case kind == shared.KindConflict:
		write(w, ProblemDetail{Title: "Conflict", Status: http.StatusConflict, Kind: kind, Detail: conflictDetail})
	case errors.Is(err, shared.ErrUnauthenticated):
		write(w, ProblemDetail{Title: "Unauthorized", Status: http.StatusUnauthorized, Kind: kind, Detail: err.Error()})
	case errors.Is(err, shared.ErrNoTenantSelected):
		write(w, ProblemDetail{Title: "Company Not Selected", Status: http.StatusPreconditionRequired, Kind: kind, Detail: err.Error()})
	default:
		write(w, ProblemDetail{Title: "Internal Error", Status: http.StatusInternalServerError, Kind: shared.KindInternal})
	}
}

// FromValidator converts validator failures into a *shared.ValidationError keyed by json field names.
func FromValidator(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &shared.ValidationError{Reason: shared.ReasonInvalidField}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), ruleMessage(fe))
	}
	return verr
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "failed " + fe.Tag() + " rule"
	}
}
