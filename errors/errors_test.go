package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
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

func TestAppError_NotFound(t *testing.T) {
	err := NotFound("transcript job", "abc")
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["resource"] != "transcript job" || err.Details["id"] != "abc" {
		t.Errorf("unexpected details %v", err.Details)
	}

	empty := NotFound("transcript job", "")
	if _, ok := empty.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"service unavailable", ServiceUnavailable("whisper"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"timeout", Timeout("transcode"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"rate limited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"conflict", Conflict("illegal transition"), ErrCodeConflict, http.StatusConflict, false},
		{"invalid input", InvalidInput("name", "bad chars"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"validation", Validation("bad"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"missing field", MissingField("video"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"invalid format", InvalidFormat("transcript", "lines"), ErrCodeInvalidFormat, http.StatusBadRequest, false},
		{"payload too large", PayloadTooLarge(1024), ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge, false},
		{"internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError, false},
		{"storage", StorageError("upload", nil), ErrCodeStorage, http.StatusBadGateway, true},
		{"external", ExternalServiceError("ffmpeg", nil), ErrCodeExternalService, http.StatusBadGateway, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := InvalidInput("name", "bad chars")
	if !strings.HasPrefix(err.Error(), "INVALID_INPUT: ") {
		t.Errorf("unexpected error string %q", err.Error())
	}

	wrapped := ExternalServiceError("ffmpeg", fmt.Errorf("exit status 1"))
	if !strings.Contains(wrapped.Error(), "cause: exit status 1") {
		t.Errorf("expected cause in error string, got %q", wrapped.Error())
	}
}

func TestAppError_UnwrapAndAs(t *testing.T) {
	cause := stderrors.New("disk full")
	appErr := StorageError("upload", cause)
	wrapped := fmt.Errorf("pipeline: %w", appErr)

	if !stderrors.Is(wrapped, cause) {
		t.Fatal("expected cause to be reachable through the chain")
	}
	got, ok := AsAppError(wrapped)
	if !ok || got != appErr {
		t.Fatalf("expected AsAppError to find the app error, got %v", got)
	}
	if !IsAppError(wrapped) {
		t.Fatal("expected IsAppError to be true")
	}
	if IsAppError(cause) {
		t.Fatal("plain error must not be an AppError")
	}
	if !IsRetryable(wrapped) {
		t.Fatal("storage errors are retryable")
	}
	if IsRetryable(cause) {
		t.Fatal("plain errors are not retryable")
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := Internal(nil).WithDetail("job_id", "j1").WithDetails(map[string]any{"stage": "upload"})
	if err.Details["job_id"] != "j1" || err.Details["stage"] != "upload" {
		t.Fatalf("unexpected details %v", err.Details)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}

	orig := NotFound("transcript job", "x")
	if got := Wrap(fmt.Errorf("ctx: %w", orig)); got != orig {
		t.Fatal("Wrap must return the AppError found in the chain")
	}

	plain := stderrors.New("boom")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Fatalf("expected internal error wrapping cause, got %+v", got)
	}
}

func TestToResponse(t *testing.T) {
	resp := InvalidFormat("transcript", "lines").WithDetail("lines", []int{3}).ToResponse()
	if resp.Error.Code != ErrCodeInvalidFormat {
		t.Errorf("unexpected code %s", resp.Error.Code)
	}
	if resp.Error.Retryable {
		t.Error("expected not retryable")
	}
	if resp.Error.Details["expected_format"] != "lines" {
		t.Errorf("unexpected details %v", resp.Error.Details)
	}
}

func TestStatus_Default(t *testing.T) {
	if (&AppError{Code: ErrCodeInternal}).Status() != http.StatusInternalServerError {
		t.Fatal("zero status must map to 500")
	}
	if NotFound("x", "").Status() != http.StatusNotFound {
		t.Fatal("expected 404")
	}
}

func TestIsRetryableCode(t *testing.T) {
	if IsRetryableCode(ErrCodeInvalidFormat) {
		t.Error("INVALID_FORMAT must not be retryable")
	}
	if !IsRetryableCode(ErrCodeExternalService) {
		t.Error("EXTERNAL_SERVICE_ERROR must be retryable")
	}
}
