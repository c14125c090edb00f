package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageError(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := &StorageError{
		Path: "/test/path",
		Op:   "read",
		Err:  originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/test/path") {
		t.Errorf("StorageError.Error() should contain path, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
}

func TestParseError(t *testing.T) {
	originalErr := errors.New("invalid JSON")
	err := &ParseError{
		Source: "heartbeat",
		Key:    "heartbeat:m1",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "parse error") {
		t.Errorf("ParseError.Error() should contain 'parse error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "heartbeat:m1") {
		t.Errorf("ParseError.Error() should contain key, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ParseError.Unwrap() should return original error")
	}
}

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "missing field",
			err:  &ConfigError{Field: "cloudflare.account_id"},
			want: "config error: cloudflare.account_id is not configured",
		},
		{
			name: "with reason",
			err:  &ConfigError{Field: "kv.backend", Reason: "unsupported value \"redis\""},
			want: "config error: kv.backend: unsupported value \"redis\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ConfigError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviderError(t *testing.T) {
	originalErr := errors.New("timeout")
	err := &ProviderError{Provider: ProviderCursor, Op: "list", Err: originalErr}

	if got := err.Error(); got != "cursor list failed: timeout" {
		t.Errorf("ProviderError.Error() = %q", got)
	}

	var target *ProviderError
	if !errors.As(error(err), &target) {
		t.Fatal("errors.As should match *ProviderError")
	}
	if !errors.Is(err, originalErr) {
		t.Error("ProviderError.Unwrap() should return original error")
	}
}
