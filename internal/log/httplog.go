package log

import (
	"time"
)

// HTTPLogEntry describes one served HTTP request.
type HTTPLogEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	Station    string
}

// LogHTTPRequest writes an access-log line. Server errors are logged at error level,
// client errors at warn level, everything else at info.
func LogHTTPRequest(e HTTPLogEntry) {
	fields := []any{
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"size", e.Size,
		"remote_addr", e.RemoteAddr,
		"user_agent", e.UserAgent,
	}
	if e.Station != "" {
		fields = append(fields, "station", e.Station)
	}

	switch {
	case e.Status >= 500:
		Errorw("http request", fields...)
	case e.Status >= 400:
		Warnw("http request", fields...)
	default:
		Infow("http request", fields...)
	}
}
