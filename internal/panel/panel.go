// Package panel is the admin configuration panel: the settings it owns,
// the active tab and the state of every tab.
package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/rmsconsole/rmsconsole/internal/notifications"
	"github.com/rmsconsole/rmsconsole/internal/payment"
	"github.com/rmsconsole/rmsconsole/internal/policy"
	"github.com/rmsconsole/rmsconsole/internal/reason"
	"github.com/rmsconsole/rmsconsole/internal/settings"
	"github.com/sirupsen/logrus"
)

// ErrTabDisabled is returned when selecting, or editing, a tab whose
// gating flag is off
var ErrTabDisabled = policy.ErrTabDisabled

// Options configures a new Panel
type Options struct {
	Logger   *logrus.Logger
	Notifier notifications.Notifier

	// Seed is the initial reason list; nil uses the embedded default
	Seed []reason.Reason
	IDs  reason.IDGenerator

	SettingsObserver settings.Observer
	ReasonObserver   reason.OperationObserver
}

// Panel is the state of one admin session
type Panel struct {
	settings  *settings.Manager
	returns   *policy.Editor
	exchanges *policy.Editor
	payment   *payment.Tab
	reasons   *reason.Manager
	notifier  notifications.Notifier
	logger    *logrus.Logger

	mu     sync.Mutex
	active Tab
}

// New creates a panel in its initial state
func New(opts Options) (*Panel, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.Discard
	}

	seed := opts.Seed
	if seed == nil {
		var err error
		if seed, err = reason.DefaultSeed(); err != nil {
			return nil, fmt.Errorf("failed to load reason seed: %w", err)
		}
	}

	var settingsOpts []settings.Option
	if opts.SettingsObserver != nil {
		settingsOpts = append(settingsOpts, settings.WithObserver(opts.SettingsObserver))
	}
	sm := settings.NewManager(logger, settingsOpts...)

	reasons := reason.NewManager(reason.NewCatalog(seed, opts.IDs), notifier, logger)
	reasons.SetObserver(opts.ReasonObserver)

	return &Panel{
		settings:  sm,
		returns:   policy.NewEditor(policy.KindReturn, sm.Get, logger),
		exchanges: policy.NewEditor(policy.KindExchange, sm.Get, logger),
		payment:   payment.NewTab(notifier, logger),
		reasons:   reasons,
		notifier:  notifier,
		logger:    logger,
		active:    TabSettings,
	}, nil
}

// Settings returns the settings manager
func (p *Panel) Settings() *settings.Manager { return p.settings }

// Returns returns the return draft editor
func (p *Panel) Returns() *policy.Editor { return p.returns }

// Exchanges returns the exchange draft editor
func (p *Panel) Exchanges() *policy.Editor { return p.exchanges }

// Payment returns the payment tab
func (p *Panel) Payment() *payment.Tab { return p.payment }

// Reasons returns the reason tab
func (p *Panel) Reasons() *reason.Manager { return p.reasons }

// Editor returns the draft editor for kind
func (p *Panel) Editor(kind policy.Kind) *policy.Editor {
	if kind == policy.KindExchange {
		return p.exchanges
	}
	return p.returns
}

// UpdateSettings merges top-level flags. Unset fields keep their value.
// Flag changes go through the panel lock so they never interleave with a
// tab selection.
func (p *Panel) UpdateSettings(patch settings.Patch) settings.AdminSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Update(patch)
}

// UpdateSupportSettings merges support flags. Unset fields keep their value.
func (p *Panel) UpdateSupportSettings(patch settings.SupportPatch) settings.AdminSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.UpdateSupport(patch)
}

// SetSetting sets one flag by key from its string form
func (p *Panel) SetSetting(key, value string) (*settings.Setting, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.settings.Set(key, value); err != nil {
		return nil, err
	}
	return p.settings.GetSetting(key)
}

// BulkUpdateSettings sets several flags at once; nothing changes if any
// key or value is invalid
func (p *Panel) BulkUpdateSettings(updates map[string]string) ([]settings.Setting, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.settings.BulkUpdate(updates); err != nil {
		return nil, err
	}
	return p.settings.ListAll(), nil
}

// Save confirms the settings. Toggles already apply on change, so nothing
// else happens.
func (p *Panel) Save(ctx context.Context) notifications.Notification {
	n := notifications.New("Settings updated successfully", "Your configuration has been saved.")
	p.notifier.Notify(ctx, n)
	p.logger.Info("Settings saved")
	return n
}

// TestError emits the failure notification without touching any state
func (p *Panel) TestError(ctx context.Context) notifications.Notification {
	n := notifications.Destructive("Unable to save", "Please check required fields and try again.")
	p.notifier.Notify(ctx, n)
	return n
}

// ActiveTab returns the selected tab
func (p *Panel) ActiveTab() Tab {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// SelectTab activates a tab. A disabled tab cannot be selected.
func (p *Panel) SelectTab(t Tab) error {
	if _, err := ParseTab(string(t)); err != nil {
		return err
	}

	p.mu.Lock()
	if p.disabled(t, p.settings.Get()) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTabDisabled, t)
	}
	p.active = t
	p.mu.Unlock()

	p.logger.WithField("tab", t).Debug("Tab selected")
	return nil
}

// Tabs lists every tab with its disabled and active state. Turning off a
// flag does not move the selection away from its tab.
func (p *Panel) Tabs() []TabInfo {
	return p.tabs(p.settings.Get(), p.ActiveTab())
}

func (p *Panel) tabs(s settings.AdminSettings, active Tab) []TabInfo {
	out := make([]TabInfo, 0, len(allTabs))
	for _, t := range allTabs {
		out = append(out, TabInfo{
			ID:       t.id,
			Label:    t.label,
			Disabled: p.disabled(t.id, s),
			Active:   t.id == active,
		})
	}
	return out
}

func (p *Panel) disabled(t Tab, s settings.AdminSettings) bool {
	switch t {
	case TabReturn:
		return !s.EnableReturns
	case TabExchange:
		return !s.EnableExchanges
	}
	return false
}

// Reset returns every tab to its initial state
func (p *Panel) Reset() {
	p.mu.Lock()
	p.settings.Reset()
	p.active = TabSettings
	p.mu.Unlock()

	p.returns.Reset()
	p.exchanges.Reset()
	p.payment.Reset()
	p.reasons.Reset()

	p.logger.Info("Panel reset")
}
