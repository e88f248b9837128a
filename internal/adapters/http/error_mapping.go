package httpadapter

import (
	"net/http"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrCaseNotFound),
		domain.IsKind(err, domain.ErrClauseNotFound),
		domain.IsKind(err, domain.ErrNoActiveClause):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrClauseInProgress),
		domain.IsKind(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
