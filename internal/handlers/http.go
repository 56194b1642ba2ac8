package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/services"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrCodeVoteAlreadyActive = "VOTE_ALREADY_ACTIVE"
	ErrCodeEligibility       = "ELIGIBILITY_DENIED"
	ErrCodeDuplicateBallot   = "DUPLICATE_BALLOT"
	ErrCodeInvalidTags       = "INVALID_TAGS"
	ErrCodeVoteClosed        = "VOTE_CLOSED"
	ErrCodeAlreadyAppealed   = "ALREADY_APPEALED"
	ErrCodeNotEligible       = "NOT_ELIGIBLE"
	ErrCodeInvalidRole       = "INVALID_ROLE"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Reason  string         `json:"reason,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrBadRequest     = &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: "Bad request"}
	ErrUnauthorized   = &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrNotFound       = &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: "Not found"}
	ErrInternalServer = &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
)

// kindStatus maps application error kinds to their HTTP status and code
var kindStatus = map[errors.Kind]struct {
	status int
	code   string
}{
	errors.ErrNotFound:          {http.StatusNotFound, ErrCodeNotFound},
	errors.ErrValidation:        {http.StatusBadRequest, ErrCodeValidation},
	errors.ErrInvalidInput:      {http.StatusBadRequest, ErrCodeValidation},
	errors.ErrConflict:          {http.StatusConflict, ErrCodeConflict},
	errors.ErrVoteAlreadyActive: {http.StatusConflict, ErrCodeVoteAlreadyActive},
	errors.ErrEligibilityDenied: {http.StatusForbidden, ErrCodeEligibility},
	errors.ErrDuplicateBallot:   {http.StatusConflict, ErrCodeDuplicateBallot},
	errors.ErrInvalidTags:       {http.StatusBadRequest, ErrCodeInvalidTags},
	errors.ErrVoteClosed:        {http.StatusConflict, ErrCodeVoteClosed},
	errors.ErrAlreadyAppealed:   {http.StatusConflict, ErrCodeAlreadyAppealed},
	errors.ErrNotEligible:       {http.StatusForbidden, ErrCodeNotEligible},
	errors.ErrInvalidRole:       {http.StatusBadRequest, ErrCodeInvalidRole},
}

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message and auto-assigned error code
func BadRequest(message string) *APIError {
	code := ErrCodeBadRequest
	if strings.Contains(strings.ToLower(message), "invalid") {
		code = ErrCodeValidation
	}
	return &APIError{Status: http.StatusBadRequest, Code: code, Message: message}
}

// Unauthorized creates a 401 error with custom message
func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// InternalError creates a 500 error, logs the original error
func InternalError(err error) *APIError {
	log.Printf("Internal error: %v", err)
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondSuccess writes a 200 OK with a message
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// respondDeleted writes a 204 No Content response
func respondDeleted(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*APIError); ok {
		respondJSON(w, apiErr.Status, apiErr)
		return
	}
	apiErr := ToAPIError(err)
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target
func decodeJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// decodeOptionalJSON decodes the body into target, accepting an empty body
func decodeOptionalJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && err != io.EOF {
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// requireParam extracts a non-empty URL parameter
func requireParam(r *http.Request, name string) (string, error) {
	param := chi.URLParam(r, name)
	if param == "" {
		return "", BadRequest("Missing " + name + " parameter")
	}
	return param, nil
}

// parseLimit reads the optional limit query parameter
func parseLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, BadRequest("Invalid limit parameter")
	}
	if n > max {
		n = max
	}
	return n, nil
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		mapped, ok := kindStatus[appErr.Kind]
		if !ok {
			return InternalError(err)
		}
		return &APIError{
			Status:  mapped.status,
			Code:    mapped.code,
			Message: appErr.Message,
			Reason:  appErr.Reason,
			Meta:    appErr.Meta,
		}
	}

	var svcErr *services.ServiceError
	if stderrors.As(err, &svcErr) {
		apiErr := BadRequest(svcErr.Message)
		apiErr.Meta = map[string]any{"setting": svcErr.Setting}
		return apiErr
	}
	var tableErr *services.InvalidTableError
	if stderrors.As(err, &tableErr) {
		return BadRequest(tableErr.Error())
	}

	return InternalError(err)
}
