package policy

import (
	"sync"

	"github.com/rmsconsole/rmsconsole/internal/settings"
	"github.com/sirupsen/logrus"
)

// SettingsSource returns the current admin settings
type SettingsSource func() settings.AdminSettings

// Editor owns one draft. Every mutation is rejected while the tab's
// gating flag is off.
type Editor struct {
	kind     Kind
	opts     Options
	settings SettingsSource
	logger   *logrus.Logger

	mu    sync.Mutex
	draft Draft
}

// NewEditor creates an editor holding the initial draft for kind
func NewEditor(kind Kind, source SettingsSource, logger *logrus.Logger) *Editor {
	if source == nil {
		source = settings.Defaults
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Editor{
		kind:     kind,
		opts:     OptionsFor(kind),
		settings: source,
		logger:   logger,
		draft:    NewDraft(kind),
	}
}

// Kind returns the kind of draft being edited
func (e *Editor) Kind() Kind {
	return e.kind
}

// Enabled reports whether the gating flag of this tab is on
func (e *Editor) Enabled() bool {
	return enabled(e.kind, e.settings())
}

func enabled(kind Kind, s settings.AdminSettings) bool {
	if kind == KindExchange {
		return s.EnableExchanges
	}
	return s.EnableReturns
}

// Draft returns a copy of the current draft
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.clone()
}

// Apply merges p into the draft. Either every field in p is applied or
// none is.
func (e *Editor) Apply(p Patch) (Draft, error) {
	return e.update("patch", func(d *Draft) error {
		return d.apply(p, e.opts)
	})
}

// SetDays sets the eligibility window in days
func (e *Editor) SetDays(days int) (Draft, error) {
	return e.Apply(Patch{Days: &days})
}

// SetMultiple toggles whether several items may be handled in one request
func (e *Editor) SetMultiple(v bool) (Draft, error) {
	return e.Apply(Patch{Multiple: &v})
}

// SetOrderDates sets the order date range; "" leaves an end open
func (e *Editor) SetOrderDates(from, to string) (Draft, error) {
	return e.Apply(Patch{OrderDateFrom: &from, OrderDateTo: &to})
}

// SetFilter sets one product filter; value "" clears it
func (e *Editor) SetFilter(name, value string) (Draft, error) {
	return e.Apply(Patch{ProductFilters: map[string]string{name: value}})
}

// SetRefundModes merges refund modes. Only return drafts have them.
func (e *Editor) SetRefundModes(p RefundModesPatch) (Draft, error) {
	return e.Apply(Patch{RefundModes: &p})
}

// SetMethod picks the shipping method
func (e *Editor) SetMethod(method string) (Draft, error) {
	return e.Apply(Patch{Method: &method})
}

// SetReasonRules merges the reason rules
func (e *Editor) SetReasonRules(p ReasonRulesPatch) (Draft, error) {
	return e.Apply(Patch{ReasonRules: &p})
}

// SetTestMode toggles the test banner
func (e *Editor) SetTestMode(v bool) (Draft, error) {
	return e.Apply(Patch{TestMode: &v})
}

// SelectLocation adds a state to the location filter. Selecting an
// already selected state changes nothing.
func (e *Editor) SelectLocation(code string) (Draft, error) {
	return e.update("select_location", func(d *Draft) error {
		return d.selectLocation(code)
	})
}

// DeselectLocation removes a state from the location filter. Removing
// an unselected state changes nothing.
func (e *Editor) DeselectLocation(code string) (Draft, error) {
	return e.update("deselect_location", func(d *Draft) error {
		return d.deselectLocation(code)
	})
}

// Reset restores the initial draft
func (e *Editor) Reset() {
	e.mu.Lock()
	e.draft = NewDraft(e.kind)
	e.mu.Unlock()
}

func (e *Editor) update(op string, fn func(d *Draft) error) (Draft, error) {
	if !e.Enabled() {
		return Draft{}, ErrTabDisabled
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.draft.clone()
	if err := fn(&next); err != nil {
		e.logger.WithFields(logrus.Fields{
			"kind":      e.kind,
			"operation": op,
			"error":     err.Error(),
		}).Debug("Draft update rejected")
		return Draft{}, err
	}
	e.draft = next

	e.logger.WithFields(logrus.Fields{
		"kind":      e.kind,
		"operation": op,
	}).Debug("Draft updated")
	return e.draft.clone(), nil
}
