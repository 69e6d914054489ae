package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketapi/internal/payment"
)

// apiError is the request-level error taxonomy. Every handler failure is
// one of these; writeError maps them to a status and JSON body in one
// place instead of per handler.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func errBadRequest(message string) error {
	return &apiError{status: http.StatusBadRequest, message: message}
}

func errUnauthorized(message string) error {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

func errPaymentRequired(message string) error {
	return &apiError{status: http.StatusPaymentRequired, message: message}
}

func errForbidden(message string) error {
	return &apiError{status: http.StatusForbidden, message: message}
}

func errNotFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

func errConflict(message string) error {
	return &apiError{status: http.StatusConflict, message: message}
}

// writeError resolves an error to its HTTP response. Payment errors are
// translated here so handlers can pass orchestrator failures straight
// through.
func writeError(c *gin.Context, route string, err error) {
	var invalidParams *payment.InvalidParamsError
	if errors.As(err, &invalidParams) {
		err = errBadRequest(invalidParams.Error())
	}
	var provider *payment.ProviderError
	if errors.As(err, &provider) {
		log.Printf("[%s] payment provider error: %v", route, provider.Err)
		err = errPaymentRequired("payment required")
	}

	var ae *apiError
	if errors.As(err, &ae) {
		respondWithError(c, ae.status, route, ae.message)
		return
	}

	log.Printf("[%s] unexpected error: %v", route, err)
	respondWithError(c, http.StatusInternalServerError, route, "internal server error")
}

func statusOf(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status
	}
	return http.StatusInternalServerError
}
