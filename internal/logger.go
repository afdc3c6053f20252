package internal

import (
	"io"
	"log/slog"
	"time"
)

// sessionIDPrefix is how much of a session id reaches the logs. The full id
// is a bearer credential for the visitor's cart and order confirmations.
const sessionIDPrefix = 8

// customerAttrs never reach the logs verbatim.
var customerAttrs = map[string]bool{
	"phone":         true,
	"address":       true,
	"customer_name": true,
}

func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var h slog.Handler

	// Validate log level
	var l = new(slog.LevelVar) // Info by default
	switch level {
	case "info":
	case "debug":
		l.Set(slog.LevelDebug)
	case "warn":
		l.Set(slog.LevelWarn)
	case "error":
		l.Set(slog.LevelError)
	default:
		slog.Default().Warn("Invalid log level. Using default level: info", slog.String("value", level))
	}

	switch env {
	case "prod":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: l,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return scrubAttr(a)
			},
		})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: l,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				return scrubAttr(a)
			},
		})
	}

	return slog.New(h)
}

// scrubAttr shortens session ids and masks shopper contact details.
func scrubAttr(a slog.Attr) slog.Attr {
	switch {
	case a.Key == "session_id":
		if sid := a.Value.String(); len(sid) > sessionIDPrefix {
			return slog.String(a.Key, sid[:sessionIDPrefix])
		}
	case customerAttrs[a.Key] && a.Value.Kind() == slog.KindString && a.Value.String() != "":
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
