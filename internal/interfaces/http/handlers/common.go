// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps application error codes to HTTP status codes. Internal
// details are masked.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)

	resp := ErrorResponse{Code: string(code)}
	if appErr, ok := err.(*errors.AppError); ok && status < http.StatusInternalServerError {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	} else if status < http.StatusInternalServerError {
		resp.Message = err.Error()
	} else {
		resp.Message = "internal server error"
	}
	writeJSON(w, status, resp)
}

func statusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidParam,
		errors.ErrCodeEmptyInput,
		errors.ErrCodeTypeKind,
		errors.ErrCodeInvalidMolecule,
		errors.ErrCodeInvalidPattern,
		errors.ErrCodeMalformedReaction,
		errors.ErrCodeMoleculeFormatInvalid,
		errors.ErrCodeRuleFormatInvalid,
		errors.ErrCodeInvalidDirection,
		errors.ErrCodeIndexOutOfRange,
		errors.ErrCodeInvalidRecord,
		errors.ErrCodeSubstructureSearch:
		return http.StatusBadRequest
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeDataSourceRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeExternalService, errors.ErrCodeDataSourceUnavailable:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
