package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mrops-br/product-catalog-api/internal/domain"
)

type stubFieldError map[string]string

func (e stubFieldError) Error() string             { return "invalid request" }
func (e stubFieldError) Unwrap() error             { return domain.ErrValidation }
func (e stubFieldError) Fields() map[string]string { return e }

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantType    string
		wantDetails bool
		wantRef     bool
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("load: %w", domain.ErrProductNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   "not_found",
		},
		{
			name:       "domain validation",
			err:        domain.ErrInvalidProductName,
			wantStatus: http.StatusBadRequest,
			wantType:   "bad_request",
		},
		{
			name:        "field validation",
			err:         stubFieldError{"name": "is required"},
			wantStatus:  http.StatusBadRequest,
			wantType:    "bad_request",
			wantDetails: true,
		},
		{
			name:       "store unavailable",
			err:        fmt.Errorf("find: %w", domain.ErrStoreUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   "service_unavailable",
		},
		{
			name:       "unclassified",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal_server_error",
			wantRef:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/products/1", nil)
			FromError(rec, req, logger, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantType {
				t.Errorf("error = %q, want %q", body.Error, tt.wantType)
			}
			if tt.wantDetails && body.Details["name"] != "is required" {
				t.Errorf("details = %v", body.Details)
			}

			if tt.wantRef {
				if _, err := uuid.Parse(body.Reference); err != nil {
					t.Errorf("reference %q is not a uuid", body.Reference)
				}
				if strings.Contains(body.Message, "boom") {
					t.Error("internal error cause leaked to the client")
				}
				if !strings.Contains(logs.String(), body.Reference) {
					t.Error("reference missing from the error log")
				}
			} else if body.Reference != "" {
				t.Errorf("unexpected reference %q", body.Reference)
			}
		})
	}
}
