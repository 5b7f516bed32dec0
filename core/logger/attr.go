package logger

import (
	"log/slog"
	"time"
)

// Helpers that take a string or an error return an empty Attr for empty
// input, which slog drops.

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// ============================================================================
// Timing
// ============================================================================

// Duration creates an attribute for a configured wait or delay.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Interval creates an attribute for a polling or health check interval.
func Interval(d time.Duration) slog.Attr {
	return slog.Duration("interval", d)
}

// Elapsed reports the time since start.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ============================================================================
// Identity
// ============================================================================

// Principal creates an attribute for the account a credential set belongs to.
func Principal(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("principal", id)
}

// SessionID creates an attribute for a client session identifier.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// ============================================================================
// HTTP
// ============================================================================

func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// URL creates an attribute for a request or stream URL.
func URL(u string) slog.Attr {
	if u == "" {
		return slog.Attr{}
	}
	return slog.String("url", u)
}

func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// RetryCount creates an attribute for the number of the current attempt.
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// ============================================================================
// Metadata
// ============================================================================

// Component names the package or backend emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Kind creates an attribute for a subscription or event kind.
func Kind(kind string) slog.Attr {
	return slog.String("kind", kind)
}

// Count creates a counter attribute under key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}
