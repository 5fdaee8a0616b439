package logging

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rmsconsole/rmsconsole/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func TestManager_ShipsToHTTPTarget(t *testing.T) {
	c, srv := newCollector(t)
	logger := newTestLogger()

	m := NewManager(logger)
	require.NoError(t, m.Configure([]config.LogTarget{{
		Name:          "collector",
		Type:          "http",
		URL:           srv.URL,
		Level:         "warn",
		BatchSize:     1,
		FlushInterval: time.Hour,
	}}))
	assert.Equal(t, 1, m.ActiveOutputs())

	logger.Info("below the target level")
	logger.WithError(errors.New("boom")).WithField("workspace", "ws-1").Error("Save failed")

	require.Eventually(t, func() bool { return len(c.entries()) == 1 }, 2*time.Second, 10*time.Millisecond)

	got := c.entries()[0]
	assert.Equal(t, "Save failed", got.Message)
	assert.Equal(t, "error", got.Level)
	assert.Equal(t, "ws-1", got.Fields["workspace"])
	assert.Equal(t, "boom", got.Fields["error"])

	m.Close()
	assert.Equal(t, 0, m.ActiveOutputs())
}

func TestManager_ConfigureErrors(t *testing.T) {
	tests := []struct {
		name    string
		targets []config.LogTarget
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown type",
			targets: []config.LogTarget{{Type: "kafka"}},
			wantErr: ErrInvalidOutputType,
		},
		{
			name:    "http without url",
			targets: []config.LogTarget{{Type: "http"}},
			wantErr: ErrHTTPURLNotConfigured,
		},
		{
			name:    "syslog without host",
			targets: []config.LogTarget{{Type: "syslog"}},
			wantErr: ErrSyslogHostNotConfigured,
		},
		{
			name: "duplicate names",
			targets: []config.LogTarget{
				{Name: "a", Type: "http", URL: "http://127.0.0.1:1"},
				{Name: "a", Type: "http", URL: "http://127.0.0.1:2"},
			},
			wantErr: ErrDuplicateTarget,
		},
		{
			name:    "bad level",
			targets: []config.LogTarget{{Type: "http", URL: "http://127.0.0.1:1", Level: "loud"}},
			wantMsg: "not a valid logrus Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(newTestLogger())
			defer m.Close()

			err := m.Configure(tt.targets)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, 0, m.ActiveOutputs())
		})
	}
}

func TestManager_FailedConfigureKeepsPrevious(t *testing.T) {
	_, srv := newCollector(t)

	m := NewManager(newTestLogger())
	defer m.Close()

	require.NoError(t, m.Configure([]config.LogTarget{{Type: "http", URL: srv.URL}}))
	require.Error(t, m.Configure([]config.LogTarget{{Type: "kafka"}}))
	assert.Equal(t, 1, m.ActiveOutputs())

	require.NoError(t, m.Configure(nil))
	assert.Equal(t, 0, m.ActiveOutputs())
}

func TestDispatchHook_NoTargets(t *testing.T) {
	h := NewDispatchHook()
	assert.Equal(t, logrus.AllLevels, h.Levels())
	assert.NoError(t, h.Fire(logrus.NewEntry(newTestLogger())))
}
