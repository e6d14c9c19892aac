package httpapi

import (
	"errors"
	"net/http"

	appIntent "github.com/handlepay/handlepay/internal/application/intent"
	"github.com/handlepay/handlepay/internal/domain/amount"
	"github.com/handlepay/handlepay/internal/domain/identity"
	domainIntent "github.com/handlepay/handlepay/internal/domain/intent"
)

var kindStatus = map[domainIntent.Kind]int{
	domainIntent.KindMalformedInput: http.StatusBadRequest,
	domainIntent.KindNotFound:       http.StatusNotFound,
	domainIntent.KindConflict:       http.StatusConflict,
	domainIntent.KindSelfReference:  http.StatusUnprocessableEntity,
	domainIntent.KindNetwork:        http.StatusBadGateway,
	domainIntent.KindUserRejected:   http.StatusConflict,
	domainIntent.KindLedgerRejected: http.StatusUnprocessableEntity,
}

// respondDomainError maps engine errors to HTTP responses.
func respondDomainError(w http.ResponseWriter, err error) {
	var ie *domainIntent.Error
	if errors.As(err, &ie) {
		status, ok := kindStatus[ie.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		respondJSON(w, status, map[string]interface{}{
			"error":   string(ie.Kind),
			"message": ie.Message,
			"detail":  ie,
		})
		return
	}

	switch {
	case errors.Is(err, appIntent.ErrFlowNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domainIntent.ErrClosed):
		respondError(w, http.StatusGone, "FLOW_CLOSED", err.Error())
	case errors.Is(err, domainIntent.ErrExecutionInProgress):
		respondError(w, http.StatusConflict, "IN_PROGRESS", err.Error())
	case errors.Is(err, domainIntent.ErrNotReady),
		errors.Is(err, domainIntent.ErrAllowanceInsufficient),
		errors.Is(err, domainIntent.ErrInputChanged),
		errors.Is(err, domainIntent.ErrNotRecoverable),
		errors.Is(err, domainIntent.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "NOT_READY", err.Error())
	case errors.Is(err, domainIntent.ErrUnknownFlow),
		errors.Is(err, domainIntent.ErrAmountNotAccepted),
		errors.Is(err, appIntent.ErrTargetNotAccepted),
		errors.Is(err, appIntent.ErrSlotsRequired),
		errors.Is(err, identity.ErrHandleRequired),
		errors.Is(err, amount.ErrMalformed):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, appIntent.ErrMissingSpender),
		errors.Is(err, appIntent.ErrMissingBuilder),
		errors.Is(err, appIntent.ErrNoContract):
		respondError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
