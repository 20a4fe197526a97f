package logs

import (
	"regexp"
	"strings"
	"time"
)

// Level is an inferred severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Record is one historical line parsed into a structured log entry.
type Record struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Raw       string `json:"raw"`
}

// pm2LineRe matches the prefixed PM2 format "<id>|<name>| <timestamp>: <message>".
// The timestamp group is greedy, so it ends at the last ": ".
var pm2LineRe = regexp.MustCompile(`^\d+\|[^|]+\|\s*(.+):\s*(.+)$`)

// ParseKnownFormat turns lines into records numbered from startIndex. Lines
// that do not match the PM2 format keep the whole line as message, level
// info and a timestamp taken from now.
func ParseKnownFormat(lines []string, startIndex int, now time.Time) []Record {
	stamp := now.UTC().Format(time.RFC3339Nano)
	out := make([]Record, len(lines))
	for i, line := range lines {
		rec := Record{ID: startIndex + i, Type: "log", Raw: line}
		if m := pm2LineRe.FindStringSubmatch(line); m != nil {
			rec.Timestamp = strings.TrimSpace(m[1])
			rec.Message = strings.TrimSpace(m[2])
			rec.Level = InferLevel(m[2])
		} else {
			rec.Timestamp = stamp
			rec.Message = line
			rec.Level = LevelInfo
		}
		out[i] = rec
	}
	return out
}

// InferLevel guesses a level from message text by case-insensitive
// substring match, checking error, then warn, then debug. It is a
// heuristic: "0 errors" is reported as an error.
func InferLevel(msg string) Level {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "error"):
		return LevelError
	case strings.Contains(lower, "warn"):
		return LevelWarn
	case strings.Contains(lower, "debug"):
		return LevelDebug
	default:
		return LevelInfo
	}
}
