package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "booking not found",
			},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection reset"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Provider"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Booking", "b1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("invalid JSON"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not your booking"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("slot already booked"), CodeConflict, http.StatusConflict},
		{"invalid state", InvalidState("cannot cancel completed booking"), CodeInvalidState, http.StatusBadRequest},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
		{"internal", Internal("boom", errors.New("x")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Booking store"), CodeUnavailable, http.StatusServiceUnavailable},
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

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Room", "r-1")

	if err.Message != "Room not found" {
		t.Errorf("expected message 'Room not found', got %s", err.Message)
	}
	if err.Details["id"] != "r-1" {
		t.Errorf("expected id 'r-1', got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Room" {
		t.Errorf("expected resource 'Room', got %v", err.Details["resource"])
	}
}

func TestDependency(t *testing.T) {
	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := Dependency("Booking store", fmt.Errorf("find: %w", context.DeadlineExceeded))
		if err.Code != CodeTimeout {
			t.Errorf("expected code %s, got %s", CodeTimeout, err.Code)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected wrapped deadline error")
		}
	})

	t.Run("other errors become unavailable", func(t *testing.T) {
		cause := errors.New("no reachable servers")
		err := Dependency("Booking store", cause)
		if err.Code != CodeUnavailable {
			t.Errorf("expected code %s, got %s", CodeUnavailable, err.Code)
		}
		if err.Err != cause {
			t.Errorf("expected cause to be preserved")
		}
	})
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("User")
	wrapped := fmt.Errorf("service: %w", appErr)

	if !IsAppError(appErr) {
		t.Errorf("IsAppError() should return true for AppError")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}
	if IsAppError(errors.New("regular error")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("slot already booked")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}
	if AsAppError(fmt.Errorf("tx: %w", appErr)) != appErr {
		t.Errorf("AsAppError() should unwrap to the same AppError")
	}

	regularErr := errors.New("regular error")
	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestHasCode(t *testing.T) {
	if !HasCode(Conflict("dup"), CodeConflict) {
		t.Errorf("HasCode() should match conflict")
	}
	if HasCode(Conflict("dup"), CodeNotFound) {
		t.Errorf("HasCode() should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("HasCode() should be false for non-AppError")
	}
}
