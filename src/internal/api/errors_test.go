package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
		wantDomain string
	}{
		{
			name:       "validation",
			err:        domainerrors.NewValidationError("bad host", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidRequest,
			wantDomain: "VALIDATION_ERROR",
		},
		{
			name:       "config",
			err:        domainerrors.NewConfigError("unreadable", errors.New("eof")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalError,
			wantDomain: "CONFIG_ERROR",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalError,
			wantDomain: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, "Failed", tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			apiErr := decodeError(t, rec)
			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.Details["error_code"] != tt.wantDomain {
				t.Errorf("error_code = %v, want %s", apiErr.Details["error_code"], tt.wantDomain)
			}
		})
	}
}
