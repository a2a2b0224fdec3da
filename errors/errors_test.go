package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound_Success(t *testing.T) {
	err := NotFound("service", "tts")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["resource"] != "service" {
		t.Errorf("expected resource=service, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "tts" {
		t.Errorf("expected id=tts, got %v", err.Details["id"])
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("service", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_Unauthorized_Success(t *testing.T) {
	err := Unauthorized("")
	if err.Code != ErrCodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", err.Code)
	}
	if err.Message != "Authentication required." {
		t.Errorf("expected default message, got %q", err.Message)
	}

	err2 := Unauthorized("invalid API key")
	if err2.Message != "invalid API key" {
		t.Errorf("expected custom message, got %q", err2.Message)
	}
}

func TestAppError_MissingField_Success(t *testing.T) {
	err := MissingField("host")
	if err.Code != ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %s", err.Code)
	}
	if err.Details["field"] != "host" {
		t.Errorf("expected field=host, got %v", err.Details["field"])
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("store corrupted")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Internal(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := ServiceUnavailable("discovery registry")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %s", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("expected retryable response")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("service", "asr")
	wrapped := fmt.Errorf("lookup failed: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed on wrapped error")
	}
	if got.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", got.Code)
	}

	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected AsAppError to fail on plain error")
	}
}
