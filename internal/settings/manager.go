package settings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound     = errors.New("setting not found")
	ErrInvalidValue = errors.New("invalid setting value")
)

// definition binds a setting key to the flag it controls
type definition struct {
	key         string
	category    Category
	description string
	field       func(s *AdminSettings) *bool
}

var definitions = []definition{
	// Core Settings
	{
		key:         "core.enable_returns",
		category:    CategoryCore,
		description: "Allow customers to return products",
		field:       func(s *AdminSettings) *bool { return &s.EnableReturns },
	},
	{
		key:         "core.enable_exchanges",
		category:    CategoryCore,
		description: "Allow customers to exchange products",
		field:       func(s *AdminSettings) *bool { return &s.EnableExchanges },
	},
	{
		key:         "core.enable_cancel",
		category:    CategoryCore,
		description: "Allow customers to cancel orders",
		field:       func(s *AdminSettings) *bool { return &s.EnableCancel },
	},

	// Advanced Support Settings
	{
		key:         "support.return_outside_window",
		category:    CategorySupport,
		description: "Allow returns beyond the standard return window",
		field:       func(s *AdminSettings) *bool { return &s.SupportSettings.ReturnOutsideWindow },
	},
	{
		key:         "support.return_out_of_stock",
		category:    CategorySupport,
		description: "Allow returns for items currently out of stock",
		field:       func(s *AdminSettings) *bool { return &s.SupportSettings.ReturnOutOfStock },
	},
	{
		key:         "support.auto_archive_on_refund",
		category:    CategorySupport,
		description: "Automatically archive processed returns and exchanges",
		field:       func(s *AdminSettings) *bool { return &s.SupportSettings.AutoArchiveOnRefund },
	},
	{
		key:         "support.auto_receive_on_scan",
		category:    CategorySupport,
		description: "Automatically mark items as received when scanned",
		field:       func(s *AdminSettings) *bool { return &s.SupportSettings.AutoReceiveOnScan },
	},
	{
		key:         "support.allow_exchange_out_of_stock",
		category:    CategorySupport,
		description: "Allow exchanges even when replacement items are out of stock",
		field:       func(s *AdminSettings) *bool { return &s.SupportSettings.AllowExchangeOutOfStock },
	},
}

// Observer is told about every flag that changed value
type Observer func(key string, value bool)

// Option configures a Manager
type Option func(*Manager)

// WithObserver registers a change observer
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, o)
	}
}

// Manager owns the AdminSettings of one panel. All updates are shallow,
// field-scoped merges: fields absent from a patch keep their prior value.
type Manager struct {
	mu        sync.RWMutex
	current   AdminSettings
	updatedAt map[string]time.Time
	logger    *logrus.Logger
	observers []Observer
}

// NewManager creates a settings manager initialized with Defaults
func NewManager(logger *logrus.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := &Manager{
		current:   Defaults(),
		updatedAt: make(map[string]time.Time),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.stampAll()
	return m
}

func (m *Manager) stampAll() {
	now := time.Now()
	for _, def := range definitions {
		m.updatedAt[def.key] = now
	}
}

// Get returns a copy of the current settings
func (m *Manager) Get() AdminSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset restores Defaults
func (m *Manager) Reset() {
	m.mu.Lock()
	m.current = Defaults()
	m.stampAll()
	m.mu.Unlock()

	m.logger.Info("Settings reset to defaults")
}

// Update merges p into the top-level flags and returns the result
func (m *Manager) Update(p Patch) AdminSettings {
	values := map[string]*bool{
		"core.enable_returns":   p.EnableReturns,
		"core.enable_exchanges": p.EnableExchanges,
		"core.enable_cancel":    p.EnableCancel,
	}
	return m.apply(values)
}

// UpdateSupport merges p into the support flags and returns the result
func (m *Manager) UpdateSupport(p SupportPatch) AdminSettings {
	values := map[string]*bool{
		"support.return_outside_window":       p.ReturnOutsideWindow,
		"support.return_out_of_stock":         p.ReturnOutOfStock,
		"support.auto_archive_on_refund":      p.AutoArchiveOnRefund,
		"support.auto_receive_on_scan":        p.AutoReceiveOnScan,
		"support.allow_exchange_out_of_stock": p.AllowExchangeOutOfStock,
	}
	return m.apply(values)
}

// apply writes every non-nil value under a single lock
func (m *Manager) apply(values map[string]*bool) AdminSettings {
	type change struct {
		key   string
		value bool
	}
	var changes []change

	m.mu.Lock()
	now := time.Now()
	for _, def := range definitions {
		v, ok := values[def.key]
		if !ok || v == nil {
			continue
		}
		field := def.field(&m.current)
		if *field == *v {
			continue
		}
		*field = *v
		m.updatedAt[def.key] = now
		changes = append(changes, change{key: def.key, value: *v})
	}
	result := m.current
	m.mu.Unlock()

	for _, c := range changes {
		m.logger.WithFields(logrus.Fields{
			"key":   c.key,
			"value": c.value,
		}).Info("Setting updated")
		for _, o := range m.observers {
			o(c.key, c.value)
		}
	}

	return result
}

// GetBool retrieves a setting value by key
func (m *Manager) GetBool(key string) (bool, error) {
	def, ok := lookup(key)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return *def.field(&m.current), nil
}

// GetSetting retrieves the keyed view of a setting
func (m *Manager) GetSetting(key string) (*Setting, error) {
	def, ok := lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.settingFor(def)
	return &s, nil
}

func (m *Manager) settingFor(def definition) Setting {
	return Setting{
		Key:         def.key,
		Value:       strconv.FormatBool(*def.field(&m.current)),
		Type:        string(TypeBool),
		Category:    string(def.category),
		Description: def.description,
		Editable:    true,
		UpdatedAt:   m.updatedAt[def.key],
	}
}

// Set updates a single setting from its string form
func (m *Manager) Set(key, value string) error {
	if _, ok := lookup(key); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	b, err := parseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for setting %s: %w", key, err)
	}

	m.apply(map[string]*bool{key: &b})
	return nil
}

// BulkUpdate updates multiple settings at once. Nothing is applied unless
// every key and value is valid.
func (m *Manager) BulkUpdate(updates map[string]string) error {
	values := make(map[string]*bool, len(updates))
	for key, value := range updates {
		if _, ok := lookup(key); !ok {
			return fmt.Errorf("invalid setting %s: %w", key, ErrNotFound)
		}
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		values[key] = &b
	}

	m.apply(values)

	m.logger.WithField("count", len(updates)).Info("Bulk settings update completed")
	return nil
}

// ListAll retrieves all settings ordered by category and key
func (m *Manager) ListAll() []Setting {
	m.mu.RLock()
	defer m.mu.RUnlock()

	settings := make([]Setting, 0, len(definitions))
	for _, def := range definitions {
		settings = append(settings, m.settingFor(def))
	}
	sortSettings(settings)
	return settings
}

// ListByCategory retrieves all settings in a specific category
func (m *Manager) ListByCategory(category string) []Setting {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var settings []Setting
	for _, def := range definitions {
		if string(def.category) == category {
			settings = append(settings, m.settingFor(def))
		}
	}
	sortSettings(settings)
	return settings
}

// GetCategories returns all unique categories
func (m *Manager) GetCategories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, def := range definitions {
		c := string(def.category)
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories
}

func sortSettings(settings []Setting) {
	sort.Slice(settings, func(i, j int) bool {
		if settings[i].Category != settings[j].Category {
			return settings[i].Category < settings[j].Category
		}
		return settings[i].Key < settings[j].Key
	})
}

func lookup(key string) (definition, bool) {
	for _, def := range definitions {
		if def.key == key {
			return def, true
		}
	}
	return definition{}, false
}

// parseBool accepts true, false, 1, 0, yes, no (case-insensitive)
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: must be true, false, 1, 0, yes or no", ErrInvalidValue)
	}
}
