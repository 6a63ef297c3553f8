package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Reference string            `json:"reference,omitempty"`
}

// fieldErrors is implemented by validation failures that name their fields.
type fieldErrors interface {
	Fields() map[string]string
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error:   errorType(status),
		Message: err.Error(),
	})
}

// FromError maps err to a status code and writes it. Unclassified errors are
// logged with a reference id and the client only sees that reference.
func FromError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		Error(w, http.StatusNotFound, err)

	case errors.Is(err, domain.ErrValidation):
		body := ErrorResponse{
			Error:   errorType(http.StatusBadRequest),
			Message: err.Error(),
		}
		var fe fieldErrors
		if errors.As(err, &fe) {
			body.Details = fe.Fields()
		}
		JSON(w, http.StatusBadRequest, body)

	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.WarnContext(r.Context(), "Store unavailable",
			slog.String("error", err.Error()),
		)
		JSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   errorType(http.StatusServiceUnavailable),
			Message: "the product store is temporarily unavailable",
		})

	default:
		InternalError(w, r, logger, err)
	}
}

// InternalError logs err under a fresh reference and writes a generic 500.
func InternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	ref := uuid.NewString()
	logger.ErrorContext(r.Context(), "Unhandled error",
		slog.String("reference", ref),
		slog.String("error", err.Error()),
	)
	JSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:     errorType(http.StatusInternalServerError),
		Message:   "an unexpected error occurred",
		Reference: ref,
	})
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusInternalServerError:
		return "internal_server_error"
	default:
		return "error"
	}
}
