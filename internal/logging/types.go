// Package logging ships the console's log entries to external collectors.
// Targets come from configuration and are attached to a logrus logger
// through a single dispatch hook.
package logging

import (
	"time"
)

// Output is an external log destination
type Output interface {
	Write(entry *LogEntry) error
	Close() error
}

// LogEntry is the wire form of one log line
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}
