package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rmsconsole/rmsconsole/internal/config"
	"github.com/sirupsen/logrus"
)

// Manager owns the configured log targets of a logger
type Manager struct {
	mu      sync.Mutex
	logger  *logrus.Logger
	hook    *DispatchHook
	targets []target
}

// NewManager registers a dispatch hook on logger. The hook ships nothing
// until Configure is called.
func NewManager(logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	m := &Manager{
		logger: logger,
		hook:   NewDispatchHook(),
	}
	logger.AddHook(m.hook)
	return m
}

// Configure replaces the active targets. Every target is opened before any
// is swapped in, so a bad entry leaves the previous set running.
func (m *Manager) Configure(cfgs []config.LogTarget) error {
	opened := make([]target, 0, len(cfgs))
	closeOpened := func() {
		for _, t := range opened {
			t.output.Close()
		}
	}

	seen := make(map[string]bool, len(cfgs))
	for i, cfg := range cfgs {
		name := cfg.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", cfg.Type, i)
		}
		if seen[name] {
			closeOpened()
			return fmt.Errorf("%w: %s", ErrDuplicateTarget, name)
		}
		seen[name] = true

		level := logrus.InfoLevel
		if cfg.Level != "" {
			parsed, err := logrus.ParseLevel(cfg.Level)
			if err != nil {
				closeOpened()
				return fmt.Errorf("log target %s: %w", name, err)
			}
			level = parsed
		}

		out, err := newOutput(cfg)
		if err != nil {
			closeOpened()
			return fmt.Errorf("log target %s: %w", name, err)
		}
		opened = append(opened, target{name: name, output: out, level: level})
	}

	m.mu.Lock()
	previous := m.targets
	m.targets = opened
	m.hook.store(opened)
	m.mu.Unlock()

	for _, t := range previous {
		t.output.Close()
	}

	if len(opened) > 0 {
		names := make([]string, 0, len(opened))
		for _, t := range opened {
			names = append(names, t.name)
		}
		m.logger.WithField("targets", names).Info("Log shipping configured")
	}
	return nil
}

func newOutput(cfg config.LogTarget) (Output, error) {
	switch strings.ToLower(cfg.Type) {
	case "syslog":
		return NewSyslogOutput(cfg.Protocol, cfg.Host, cfg.Port, cfg.Tag)
	case "http":
		return NewHTTPOutput(cfg.URL, cfg.AuthToken, cfg.BatchSize, cfg.FlushInterval)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutputType, cfg.Type)
	}
}

// ActiveOutputs returns the number of targets receiving entries
func (m *Manager) ActiveOutputs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.targets)
}

// Close detaches and closes every target, flushing buffered entries
func (m *Manager) Close() {
	m.mu.Lock()
	previous := m.targets
	m.targets = nil
	m.hook.store(nil)
	m.mu.Unlock()

	for _, t := range previous {
		if err := t.output.Close(); err != nil {
			m.logger.WithError(err).WithField("target", t.name).Warn("Failed to close log target")
		}
	}
}
