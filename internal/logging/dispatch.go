package logging

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// target pairs an output with the least severe level it accepts
type target struct {
	name   string
	output Output
	level  logrus.Level
}

// DispatchHook is the one logrus hook a Manager registers. Targets are
// swapped as an atomic snapshot so Fire never takes a lock; logrus offers
// no way to remove a hook once added.
type DispatchHook struct {
	snapshot atomic.Pointer[[]target]
}

// NewDispatchHook creates a hook with no targets
func NewDispatchHook() *DispatchHook {
	h := &DispatchHook{}
	h.store(nil)
	return h
}

func (h *DispatchHook) store(targets []target) {
	h.snapshot.Store(&targets)
}

// Levels returns all log levels this hook handles
func (h *DispatchHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire hands the entry to every target whose level admits it. Writes run
// in their own goroutine and their errors are dropped, since logging them
// would feed back into this hook.
func (h *DispatchHook) Fire(entry *logrus.Entry) error {
	targets := *h.snapshot.Load()
	if len(targets) == 0 {
		return nil
	}

	logEntry := &LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    make(map[string]interface{}, len(entry.Data)),
	}
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		logEntry.Fields[k] = v
	}

	for _, t := range targets {
		// logrus levels grow more verbose as they increase
		if entry.Level > t.level {
			continue
		}
		out := t.output
		go func() {
			_ = out.Write(logEntry)
		}()
	}

	return nil
}
