package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Agency", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("invalid passengers", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("profile exists"), CodeConflict, http.StatusConflict},
		{"state conflict", StateConflict("already_paid", "booking already paid", nil), CodeStateConflict, http.StatusConflict},
		{"upstream", Upstream("duffel", errors.New("502")), CodeUpstream, http.StatusBadGateway},
		{"internal", Internal("boom", errors.New("db down")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Offer API"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	plain := &AppError{Code: CodeNotFound, Message: "Booking not found"}
	if got := plain.Error(); got != "NOT_FOUND: Booking not found" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Internal("failed to persist booking", errors.New("connection reset"))
	want := "INTERNAL_ERROR: failed to persist booking (caused by: connection reset)"
	if got := wrapped.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Errorf("expected wrapped cause to be reachable through Unwrap")
	}
}

func TestStateConflict_DetailsKeepGuard(t *testing.T) {
	err := StateConflict("not_cancellable", "booking cannot be cancelled", map[string]any{
		"status":         "CONFIRMED",
		"payment_status": "PAID",
	})

	if err.Details[DetailGuard] != "not_cancellable" {
		t.Errorf("expected guard detail, got %v", err.Details[DetailGuard])
	}
	if err.Details["status"] != "CONFIRMED" {
		t.Errorf("expected status detail to be merged, got %v", err.Details["status"])
	}
}

func TestGuard(t *testing.T) {
	conflict := StateConflict("already_paid", "booking already paid", nil)
	wrapped := fmt.Errorf("mark paid: %w", conflict)

	if got := Guard(wrapped); got != "already_paid" {
		t.Errorf("Guard() = %q, want already_paid", got)
	}
	if got := Guard(NotFound("Booking")); got != "" {
		t.Errorf("Guard() on not found = %q, want empty", got)
	}
	if got := Guard(errors.New("plain")); got != "" {
		t.Errorf("Guard() on plain error = %q, want empty", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("create booking: %w", Validation("passenger_count out of range", nil))
	if !HasCode(err, CodeValidation) {
		t.Errorf("expected wrapped validation error to match")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("did not expect NOT_FOUND to match")
	}
}

func TestAsAppError(t *testing.T) {
	original := NotFound("Offer")
	if got := AsAppError(fmt.Errorf("lookup: %w", original)); got != original {
		t.Errorf("AsAppError() should unwrap to the same AppError")
	}

	plain := errors.New("driver failure")
	got := AsAppError(plain)
	if got.Code != CodeInternal || got.Err != plain {
		t.Errorf("AsAppError() should wrap plain errors as internal, got %+v", got)
	}
	if !IsAppError(original) || IsAppError(plain) {
		t.Errorf("IsAppError() mismatch")
	}
}

func TestAppError_ToJSONOmitsCause(t *testing.T) {
	err := Upstream("duffel", errors.New("secret upstream body"))

	var decoded map[string]any
	if jsonErr := json.Unmarshal(err.ToJSON(), &decoded); jsonErr != nil {
		t.Fatalf("ToJSON() produced invalid JSON: %v", jsonErr)
	}
	if decoded["code"] != CodeUpstream {
		t.Errorf("expected code %s, got %v", CodeUpstream, decoded["code"])
	}
	if _, ok := decoded["Err"]; ok {
		t.Errorf("cause must not be serialized")
	}
}
