package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandlerSanitizesSensitiveKeys tests that sensitive keys are masked.
func TestSecureHandlerSanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{
			name:     "cookie key is sanitized",
			key:      "cookie",
			value:    "session=abc123",
			wantMask: true,
		},
		{
			name:     "Cookie key (uppercase) is sanitized",
			key:      "Cookie",
			value:    "session=abc123",
			wantMask: true,
		},
		{
			name:     "authorization key is sanitized",
			key:      "authorization",
			value:    "Bearer token123",
			wantMask: true,
		},
		{
			name:     "smtp_password key is sanitized",
			key:      "smtp_password",
			value:    "hunter2",
			wantMask: true,
		},
		{
			name:     "password key is sanitized",
			key:      "password",
			value:    "secretpassword",
			wantMask: true,
		},
		{
			name:     "token key is sanitized",
			key:      "token",
			value:    "jwt.token.here",
			wantMask: true,
		},
		{
			name:     "domain key passes through",
			key:      "domain",
			value:    "example.com",
			wantMask: false,
		},
		{
			name:     "url key passes through",
			key:      "url",
			value:    "https://example.com/contact",
			wantMask: false,
		},
		{
			name:     "reason key passes through",
			key:      "reason",
			value:    "no confirmation detected",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test message", tt.key, tt.value)
			output := buf.String()

			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("sensitive value leaked into log output: %s", output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask in output, got: %s", output)
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("benign value missing from output: %s", output)
				}
			}
		})
	}
}

// TestSecureHandlerSanitizesSensitiveValues tests value-pattern masking
// independent of the attribute key.
func TestSecureHandlerSanitizesSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{
			name:  "bearer token value",
			value: "Bearer eyJhbGciOi.payload.sig",
		},
		{
			name:  "basic auth value",
			value: "Basic dXNlcjpwYXNz",
		},
		{
			name:  "long api key value",
			value: "abcdef0123456789abcdef0123456789abcd",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test message", "detail", tt.value)
			output := buf.String()

			if strings.Contains(output, tt.value) {
				t.Errorf("sensitive value leaked into log output: %s", output)
			}
		})
	}
}

// TestSecureHandlerGroups tests that grouped attributes are sanitized.
func TestSecureHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("sending email",
		slog.Group("smtp",
			slog.String("host", "smtp.example.com"),
			slog.String("password", "hunter2"),
		),
	)

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("grouped password leaked: %s", output)
	}
	if !strings.Contains(output, "smtp.example.com") {
		t.Errorf("benign grouped value missing: %s", output)
	}
}

// TestSecureHandlerWithAttrs tests sanitization of handler-level attributes.
func TestSecureHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
	logger = logger.With("auth", "Bearer abc")

	logger.Info("test message")

	if strings.Contains(buf.String(), "Bearer abc") {
		t.Errorf("With() attribute leaked: %s", buf.String())
	}
}

// TestNewSecureLoggerLevels tests verbose level switching.
func TestNewSecureLoggerLevels(t *testing.T) {
	t.Parallel()

	t.Run("quiet suppresses debug and info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Debug("debug line")
		logger.Info("info line")
		if buf.Len() != 0 {
			t.Errorf("quiet logger wrote: %s", buf.String())
		}

		logger.Warn("warn line")
		if !strings.Contains(buf.String(), "warn line") {
			t.Error("warnings should always be written")
		}
	})

	t.Run("verbose includes debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)

		logger.Debug("debug line")
		if !strings.Contains(buf.String(), "debug line") {
			t.Error("verbose logger should write debug output")
		}
	})
}

// TestNewSecureJSONLogger tests the JSON variant masks values too.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, true)

	logger.Info("test", "password", "hunter2")

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("password leaked in JSON output: %s", output)
	}
	if !strings.Contains(output, MaskValue) {
		t.Errorf("mask missing in JSON output: %s", output)
	}
}
