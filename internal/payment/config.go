package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/rmsconsole/rmsconsole/internal/notifications"
	"github.com/rmsconsole/rmsconsole/internal/settings"
	"github.com/sirupsen/logrus"
)

// ErrNegativeAmount is returned when a refund threshold is below zero
var ErrNegativeAmount = errors.New("amount must not be negative")

// Modes are the refund channels payments may be processed through
type Modes struct {
	StoreCredit     bool `json:"storeCredit"`
	BankTransfer    bool `json:"bankTransfer"`
	OriginalPayment bool `json:"originalPayment"`
	Others          bool `json:"others"`
}

// Compliance toggles. They are displayed only and gate nothing.
type Compliance struct {
	PCIDSS         bool `json:"pciDss"`
	FraudDetection bool `json:"fraudDetection"`
	AuditLogging   bool `json:"auditLogging"`
	Encryption     bool `json:"encryption"`
	TwoFactor      bool `json:"twoFactor"`
	GDPR           bool `json:"gdpr"`
}

// Config is the payment tab's editable state
type Config struct {
	Modes                   Modes      `json:"modes"`
	ProcessingTime          string     `json:"processingTime"`
	SLAGuidelines           string     `json:"slaGuidelines"`
	AutoRefundLimit         float64    `json:"autoRefundLimit"`
	ManualApprovalThreshold float64    `json:"manualApprovalThreshold"`
	Compliance              Compliance `json:"compliance"`
}

// DefaultConfig returns the initial payment configuration
func DefaultConfig() Config {
	return Config{
		Modes: Modes{
			StoreCredit:     true,
			BankTransfer:    true,
			OriginalPayment: true,
		},
		ProcessingTime:          "3-5 business days",
		AutoRefundLimit:         500,
		ManualApprovalThreshold: 1000,
		Compliance: Compliance{
			PCIDSS:         true,
			FraudDetection: true,
			AuditLogging:   true,
			Encryption:     true,
			TwoFactor:      true,
			GDPR:           true,
		},
	}
}

// ModesPatch carries the modes to change
type ModesPatch struct {
	StoreCredit     *bool `json:"storeCredit,omitempty"`
	BankTransfer    *bool `json:"bankTransfer,omitempty"`
	OriginalPayment *bool `json:"originalPayment,omitempty"`
	Others          *bool `json:"others,omitempty"`
}

// CompliancePatch carries the compliance toggles to change
type CompliancePatch struct {
	PCIDSS         *bool `json:"pciDss,omitempty"`
	FraudDetection *bool `json:"fraudDetection,omitempty"`
	AuditLogging   *bool `json:"auditLogging,omitempty"`
	Encryption     *bool `json:"encryption,omitempty"`
	TwoFactor      *bool `json:"twoFactor,omitempty"`
	GDPR           *bool `json:"gdpr,omitempty"`
}

// Patch is a partial update of Config. The auto-refund limit and the
// manual approval threshold are not checked against each other.
type Patch struct {
	Modes                   *ModesPatch      `json:"modes,omitempty"`
	ProcessingTime          *string          `json:"processingTime,omitempty"`
	SLAGuidelines           *string          `json:"slaGuidelines,omitempty"`
	AutoRefundLimit         *float64         `json:"autoRefundLimit,omitempty"`
	ManualApprovalThreshold *float64         `json:"manualApprovalThreshold,omitempty"`
	Compliance              *CompliancePatch `json:"compliance,omitempty"`
}

// Status is one line of the inherited settings summary
type Status struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Note    string `json:"note,omitempty"`
}

// Summary is the read-only rollup of the return and exchange flags
type Summary struct {
	Returns   Status `json:"returns"`
	Exchanges Status `json:"exchanges"`
}

// View is what the payment tab renders
type View struct {
	Summary Summary `json:"summary"`
	Config  Config  `json:"config"`
}

// Summarize derives the inherited settings summary
func Summarize(s settings.AdminSettings) Summary {
	sum := Summary{
		Returns:   Status{Label: "Returns: Disabled"},
		Exchanges: Status{Label: "Exchanges: Disabled"},
	}
	if s.EnableReturns {
		sum.Returns = Status{
			Label:   "Returns: Enabled",
			Enabled: true,
			Note:    "Store Credit, Bank Transfer, Original Payment Mode configured",
		}
	}
	if s.EnableExchanges {
		sum.Exchanges = Status{
			Label:   "Exchanges: Enabled",
			Enabled: true,
			Note:    "Exchange methods and filters configured",
		}
	}
	return sum
}

// Tab holds the payment configuration of one workspace
type Tab struct {
	mu       sync.Mutex
	config   Config
	notifier notifications.Notifier
	logger   *logrus.Logger
}

// NewTab creates a payment tab with the default configuration
func NewTab(notifier notifications.Notifier, logger *logrus.Logger) *Tab {
	if notifier == nil {
		notifier = notifications.Discard
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Tab{
		config:   DefaultConfig(),
		notifier: notifier,
		logger:   logger,
	}
}

// Config returns the current configuration
func (t *Tab) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// View renders the tab against s
func (t *Tab) View(s settings.AdminSettings) View {
	return View{Summary: Summarize(s), Config: t.Config()}
}

// Update merges p into the configuration
func (t *Tab) Update(p Patch) (Config, error) {
	if p.AutoRefundLimit != nil && *p.AutoRefundLimit < 0 {
		return Config{}, ErrNegativeAmount
	}
	if p.ManualApprovalThreshold != nil && *p.ManualApprovalThreshold < 0 {
		return Config{}, ErrNegativeAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c := &t.config
	if m := p.Modes; m != nil {
		merge(&c.Modes.StoreCredit, m.StoreCredit)
		merge(&c.Modes.BankTransfer, m.BankTransfer)
		merge(&c.Modes.OriginalPayment, m.OriginalPayment)
		merge(&c.Modes.Others, m.Others)
	}
	if p.ProcessingTime != nil {
		c.ProcessingTime = *p.ProcessingTime
	}
	if p.SLAGuidelines != nil {
		c.SLAGuidelines = *p.SLAGuidelines
	}
	if p.AutoRefundLimit != nil {
		c.AutoRefundLimit = *p.AutoRefundLimit
	}
	if p.ManualApprovalThreshold != nil {
		c.ManualApprovalThreshold = *p.ManualApprovalThreshold
	}
	if cp := p.Compliance; cp != nil {
		merge(&c.Compliance.PCIDSS, cp.PCIDSS)
		merge(&c.Compliance.FraudDetection, cp.FraudDetection)
		merge(&c.Compliance.AuditLogging, cp.AuditLogging)
		merge(&c.Compliance.Encryption, cp.Encryption)
		merge(&c.Compliance.TwoFactor, cp.TwoFactor)
		merge(&c.Compliance.GDPR, cp.GDPR)
	}

	t.logger.WithFields(logrus.Fields{
		"auto_refund_limit":         c.AutoRefundLimit,
		"manual_approval_threshold": c.ManualApprovalThreshold,
	}).Debug("Payment config updated")
	return t.config, nil
}

// Save confirms the configuration. Nothing is persisted.
func (t *Tab) Save(ctx context.Context) notifications.Notification {
	n := notifications.New(
		"Payment settings updated",
		"Refund processing configurations have been saved successfully.",
	)
	t.notifier.Notify(ctx, n)
	t.logger.Info("Payment settings saved")
	return n
}

// Reset restores the default configuration
func (t *Tab) Reset() {
	t.mu.Lock()
	t.config = DefaultConfig()
	t.mu.Unlock()
}

func merge(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
