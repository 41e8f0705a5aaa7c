package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewError(t *testing.T) {
	t.Parallel()

	t.Run("derives category from code", func(t *testing.T) {
		err := NewError(ErrCodeInvalidConfig, "block_size must be a positive integer")
		if err == nil {
			t.Fatal("NewError returned nil")
		}
		if err.Code != ErrCodeInvalidConfig {
			t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidConfig)
		}
		if err.Category != CategoryConfiguration {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfiguration)
		}
	})

	t.Run("formats with operation", func(t *testing.T) {
		err := NewError(ErrCodeNotFound, "path not found: a/b").WithOperation("getattr")
		want := "[getattr] NOT_FOUND: path not found: a/b"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("formats without operation", func(t *testing.T) {
		err := NewError(ErrCodeReadOnly, "read-only filesystem")
		want := "READ_ONLY: read-only filesystem"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}

func TestGetCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     ErrorCode
		expected ErrorCategory
	}{
		{ErrCodeNotFound, CategoryRequest},
		{ErrCodeReadOnly, CategoryRequest},
		{ErrCodeNoAttribute, CategoryRequest},
		{ErrCodeInvalidConfig, CategoryConfiguration},
		{ErrCodeLayoutUnreadable, CategoryConfiguration},
		{ErrCodeMountFailed, CategoryMount},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := GetCategory(tt.code); got != tt.expected {
				t.Errorf("GetCategory(%v) = %v, want %v", tt.code, got, tt.expected)
			}
		})
	}
}

func TestBuilders(t *testing.T) {
	t.Parallel()

	t.Run("not found carries path", func(t *testing.T) {
		err := NewNotFound("dir1/missing.txt")
		if err.Path != "dir1/missing.txt" {
			t.Errorf("Path = %q", err.Path)
		}
		if !strings.Contains(err.Error(), "dir1/missing.txt") {
			t.Errorf("Error() = %q, want the path in the message", err.Error())
		}
	})

	t.Run("read only names the operation", func(t *testing.T) {
		err := NewReadOnly("mkdir", "newdir")
		if err.Op != "mkdir" || err.Code != ErrCodeReadOnly {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("no attribute names the attribute", func(t *testing.T) {
		err := NewNoAttribute("a.txt", "user.checksum")
		if !strings.Contains(err.Message, "user.checksum") {
			t.Errorf("Message = %q", err.Message)
		}
	})

	t.Run("invalid config formats", func(t *testing.T) {
		err := NewInvalidConfigf("pool_blocks must be a positive integer, got %d", -1)
		if !strings.Contains(err.Message, "got -1") {
			t.Errorf("Message = %q", err.Message)
		}
	})

	t.Run("layout unreadable wraps cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := NewLayoutUnreadable("s3://bucket/layout.json", cause)
		if !errors.Is(err, cause) {
			t.Error("expected errors.Is to find the cause")
		}
	})
}

func TestErrorsIsByCode(t *testing.T) {
	t.Parallel()

	err := NewNotFound("x")
	if !errors.Is(err, NewError(ErrCodeNotFound, "anything")) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(err, NewError(ErrCodeReadOnly, "anything")) {
		t.Error("errors with different codes should not match")
	}
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("dispatch: %w", NewNotFound("a"))

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should unwrap")
	}
	if IsReadOnly(wrapped) {
		t.Error("IsReadOnly should be false for NOT_FOUND")
	}
	if CodeOf(nil) != "" {
		t.Error("CodeOf(nil) should be empty")
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("CodeOf(plain error) should be empty")
	}
	if !IsInvalidConfig(NewInvalidConfig("empty document")) {
		t.Error("IsInvalidConfig failed")
	}
	if !IsNoAttribute(NewNoAttribute("p", "n")) {
		t.Error("IsNoAttribute failed")
	}
}
