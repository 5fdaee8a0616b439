package reason

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rmsconsole/rmsconsole/internal/notifications"
	"github.com/sirupsen/logrus"
)

// Mode tells whether the dialog creates a new reason or edits one
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// DialogState is the create/edit dialog as the UI sees it
type DialogState struct {
	Open      bool   `json:"open"`
	Mode      Mode   `json:"mode,omitempty"`
	EditingID string `json:"editingId,omitempty"`
	Title     string `json:"title,omitempty"`
	Submit    string `json:"submitLabel,omitempty"`
	Form      Form   `json:"form"`
}

// OperationObserver is told about every catalog operation and its outcome
type OperationObserver func(operation string, ok bool)

// Manager runs the reason tab: the catalog, its create/edit dialog and the
// notifications each action produces
type Manager struct {
	catalog  *Catalog
	notifier notifications.Notifier
	logger   *logrus.Logger
	observe  OperationObserver

	mu     sync.Mutex
	dialog DialogState
}

// NewManager creates a reason manager over catalog
func NewManager(catalog *Catalog, notifier notifications.Notifier, logger *logrus.Logger) *Manager {
	if notifier == nil {
		notifier = notifications.Discard
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		observe:  func(string, bool) {},
	}
}

// SetObserver registers the operation observer
func (m *Manager) SetObserver(o OperationObserver) {
	if o != nil {
		m.observe = o
	}
}

// Catalog returns the underlying catalog
func (m *Manager) Catalog() *Catalog {
	return m.catalog
}

// List returns every reason in display order
func (m *Manager) List() []Reason {
	return m.catalog.List()
}

// Get returns one reason
func (m *Manager) Get(id string) (Reason, error) {
	return m.catalog.Get(id)
}

// Create validates f and appends a new reason
func (m *Manager) Create(ctx context.Context, f Form) (Reason, error) {
	r, err := m.catalog.Create(f)
	if err != nil {
		m.fail(ctx, "create", err)
		return Reason{}, err
	}
	m.observe("create", true)

	m.logger.WithFields(logrus.Fields{
		"reason_id": r.ID,
		"name":      r.Name,
	}).Info("Reason created")
	m.notifier.Notify(ctx, notifications.New(
		"Reason created successfully",
		fmt.Sprintf("\"%s\" has been added to your reason list.", r.Name),
	))
	return r, nil
}

// Update validates f and overwrites the reason with the given id
func (m *Manager) Update(ctx context.Context, id string, f Form) (Reason, error) {
	r, err := m.catalog.Update(id, f)
	if err != nil {
		m.fail(ctx, "update", err)
		return Reason{}, err
	}
	m.observe("update", true)

	m.logger.WithFields(logrus.Fields{
		"reason_id": r.ID,
		"name":      r.Name,
	}).Info("Reason updated")
	m.notifier.Notify(ctx, notifications.New(
		"Reason updated successfully",
		fmt.Sprintf("\"%s\" has been updated.", r.Name),
	))
	return r, nil
}

// Duplicate copies a reason under a new id. No validation is needed since
// the source already has a name.
func (m *Manager) Duplicate(ctx context.Context, id string) (Reason, error) {
	r, err := m.catalog.Duplicate(id)
	if err != nil {
		m.observe("duplicate", false)
		return Reason{}, err
	}
	m.observe("duplicate", true)

	m.logger.WithFields(logrus.Fields{
		"source_id": id,
		"reason_id": r.ID,
	}).Info("Reason duplicated")
	m.notifier.Notify(ctx, notifications.New(
		"Reason duplicated",
		fmt.Sprintf("\"%s\" has been created.", r.Name),
	))
	return r, nil
}

// Delete removes a reason immediately. Deleting an unknown id changes
// nothing and sends no notification.
func (m *Manager) Delete(ctx context.Context, id string) (Reason, bool) {
	r, ok := m.catalog.Delete(id)
	m.observe("delete", ok)
	if !ok {
		m.logger.WithField("reason_id", id).Debug("Delete of unknown reason ignored")
		return Reason{}, false
	}

	m.logger.WithField("reason_id", id).Info("Reason deleted")
	m.notifier.Notify(ctx, notifications.New(
		"Reason deleted",
		fmt.Sprintf("\"%s\" has been removed.", r.Name),
	))
	return r, ok
}

func (m *Manager) fail(ctx context.Context, op string, err error) {
	m.observe(op, false)
	if errors.Is(err, ErrNameRequired) {
		m.notifier.Notify(ctx, notifications.Destructive("Validation Error", "Reason Name is required."))
	}
}

// Dialog returns the current dialog state
func (m *Manager) Dialog() DialogState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog
}

// OpenCreate opens the dialog with a blank form
func (m *Manager) OpenCreate() DialogState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = DialogState{
		Open:   true,
		Mode:   ModeCreate,
		Title:  "Create New Reason",
		Submit: "Create Reason",
	}
	return m.dialog
}

// OpenEdit opens the dialog prefilled from the reason with the given id
func (m *Manager) OpenEdit(id string) (DialogState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.catalog.Get(id)
	if err != nil {
		return DialogState{}, err
	}
	m.dialog = DialogState{
		Open:      true,
		Mode:      ModeEdit,
		EditingID: r.ID,
		Title:     "Edit Reason",
		Submit:    "Update Reason",
		Form:      FormOf(r),
	}
	return m.dialog, nil
}

// SetForm replaces the form of the open dialog
func (m *Manager) SetForm(f Form) (DialogState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dialog.Open {
		return DialogState{}, ErrDialogClosed
	}
	m.dialog.Form = f
	return m.dialog, nil
}

// Close closes the dialog and clears its form and editing target
func (m *Manager) Close() DialogState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = DialogState{}
	return m.dialog
}

// Submit creates or updates from the dialog form. A validation failure
// leaves the dialog open and the catalog untouched; any other outcome
// closes the dialog. The dialog lock is held throughout, so of two
// submits of one dialog the second gets ErrDialogClosed.
func (m *Manager) Submit(ctx context.Context) (Reason, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dialog.Open {
		return Reason{}, ErrDialogClosed
	}

	var (
		r   Reason
		err error
	)
	if m.dialog.Mode == ModeEdit {
		r, err = m.Update(ctx, m.dialog.EditingID, m.dialog.Form)
	} else {
		r, err = m.Create(ctx, m.dialog.Form)
	}
	if errors.Is(err, ErrNameRequired) {
		return Reason{}, err
	}

	m.dialog = DialogState{}
	return r, err
}

// Reset restores the seeded catalog and closes the dialog
func (m *Manager) Reset() {
	m.catalog.Reset()
	m.Close()
}
