package logging

import (
	"fmt"
	"log"
	"os"
	"sort"
	"time"
)

// writeLog formats the message with optional fields and routes it:
// DEBUG/INFO/WARN go to stdout, ERROR/FATAL go to stderr.
func (l *Logger) writeLog(level LogLevel, msg string, fields map[string]interface{}) {
	logMsg := fmt.Sprintf("[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		// Stable field order keeps log lines diffable in tests.
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		logMsg += " |"
		for _, k := range keys {
			logMsg += fmt.Sprintf(" %s=%v", k, fields[k])
		}
	}

	if level >= ERROR {
		fmt.Fprintf(os.Stderr, "%s\n", logMsg)
	} else {
		log.Println(logMsg)
	}
}

func (l *Logger) logf(level LogLevel, msg string, args ...interface{}) {
	formatted := fmt.Sprintf(msg, args...)

	contextFields := extractContextFields(l.ctx)
	var merged map[string]interface{}
	if contextFields != nil || len(l.fields) > 0 {
		merged = make(map[string]interface{})
		for k, v := range contextFields {
			merged[k] = v
		}
		for k, v := range l.fields {
			merged[k] = v
		}
	}

	l.writeLog(level, formatted, merged)
}

// GetTimestamp returns an RFC3339 timestamp.
// Can be overridden via the LOG_TIMESTAMP env var for deterministic tests.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
