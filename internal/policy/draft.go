package policy

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTabDisabled   = errors.New("tab is disabled")
	ErrUnknownFilter = errors.New("unknown product filter")
	ErrUnknownOption = errors.New("unknown filter option")
	ErrUnknownMethod = errors.New("unknown method")
	ErrUnknownState  = errors.New("unknown state")
	ErrInvalidDays   = errors.New("days must not be negative")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrNoRefundModes = errors.New("refund modes apply to returns only")
)

const dateLayout = "2006-01-02"

// RefundModes are the refund channels offered for prepaid orders
type RefundModes struct {
	StoreCredit     bool `json:"storeCredit"`
	BankTransfer    bool `json:"bankTransfer"`
	OriginalPayment bool `json:"originalPayment"`
	Others          bool `json:"others"`
}

// RefundModesPatch carries the refund modes to change
type RefundModesPatch struct {
	StoreCredit     *bool `json:"storeCredit,omitempty"`
	BankTransfer    *bool `json:"bankTransfer,omitempty"`
	OriginalPayment *bool `json:"originalPayment,omitempty"`
	Others          *bool `json:"others,omitempty"`
}

// ReasonRules are the evidence requirements of the example "Other" reason
type ReasonRules struct {
	RequirePhoto   bool   `json:"requirePhoto"`
	RequireNote    bool   `json:"requireNote"`
	MandatoryOptIn bool   `json:"mandatoryOptIn"`
	CustomText     string `json:"customText"`
}

// ReasonRulesPatch carries the reason rules to change
type ReasonRulesPatch struct {
	RequirePhoto   *bool   `json:"requirePhoto,omitempty"`
	RequireNote    *bool   `json:"requireNote,omitempty"`
	MandatoryOptIn *bool   `json:"mandatoryOptIn,omitempty"`
	CustomText     *string `json:"customText,omitempty"`
}

// Draft is the in-progress configuration of the return or exchange tab.
// It lives only in memory and never feeds back into the admin settings.
type Draft struct {
	Kind           Kind              `json:"kind"`
	Days           int               `json:"days"`
	Multiple       bool              `json:"multiple"`
	OrderDateFrom  string            `json:"orderDateFrom"`
	OrderDateTo    string            `json:"orderDateTo"`
	ProductFilters map[string]string `json:"productFilters"`
	Locations      []string          `json:"locations"`
	RefundModes    *RefundModes      `json:"refundModes,omitempty"`
	Method         string            `json:"method"`
	ReasonRules    ReasonRules       `json:"reasonRules"`
	TestMode       bool              `json:"testMode"`
}

// NewDraft returns the initial draft for a kind
func NewDraft(kind Kind) Draft {
	d := Draft{
		Kind:           kind,
		Days:           30,
		Multiple:       true,
		ProductFilters: map[string]string{},
		Locations:      append([]string(nil), defaultLocations...),
		Method:         "label",
		ReasonRules: ReasonRules{
			RequirePhoto: true,
			RequireNote:  true,
		},
	}
	if kind == KindReturn {
		d.RefundModes = &RefundModes{
			StoreCredit:     true,
			BankTransfer:    true,
			OriginalPayment: true,
		}
	}
	return d
}

// HasLocation reports whether code is selected
func (d Draft) HasLocation(code string) bool {
	for _, s := range d.Locations {
		if s == code {
			return true
		}
	}
	return false
}

func (d Draft) clone() Draft {
	c := d
	c.ProductFilters = make(map[string]string, len(d.ProductFilters))
	for k, v := range d.ProductFilters {
		c.ProductFilters[k] = v
	}
	c.Locations = append([]string(nil), d.Locations...)
	if d.RefundModes != nil {
		rm := *d.RefundModes
		c.RefundModes = &rm
	}
	return c
}

// selectLocation adds code, keeping locations in display order
func (d *Draft) selectLocation(code string) error {
	if stateIndex(code) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, code)
	}
	if d.HasLocation(code) {
		return nil
	}
	selected := make([]string, 0, len(d.Locations)+1)
	for _, s := range States {
		if s == code || d.HasLocation(s) {
			selected = append(selected, s)
		}
	}
	d.Locations = selected
	return nil
}

func (d *Draft) deselectLocation(code string) error {
	if stateIndex(code) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, code)
	}
	kept := make([]string, 0, len(d.Locations))
	for _, s := range d.Locations {
		if s != code {
			kept = append(kept, s)
		}
	}
	d.Locations = kept
	return nil
}

// Patch is a partial update of a draft. Nil fields keep their value. A
// filter set to "" is cleared. Locations, when present, replace the
// whole selection.
type Patch struct {
	Days           *int              `json:"days,omitempty"`
	Multiple       *bool             `json:"multiple,omitempty"`
	OrderDateFrom  *string           `json:"orderDateFrom,omitempty"`
	OrderDateTo    *string           `json:"orderDateTo,omitempty"`
	ProductFilters map[string]string `json:"productFilters,omitempty"`
	Locations      []string          `json:"locations,omitempty"`
	RefundModes    *RefundModesPatch `json:"refundModes,omitempty"`
	Method         *string           `json:"method,omitempty"`
	ReasonRules    *ReasonRulesPatch `json:"reasonRules,omitempty"`
	TestMode       *bool             `json:"testMode,omitempty"`
}

// apply merges p into d, validating against opts. On error d may be
// partially modified, so callers apply to a clone.
func (d *Draft) apply(p Patch, opts Options) error {
	if p.Days != nil {
		if *p.Days < 0 {
			return ErrInvalidDays
		}
		d.Days = *p.Days
	}
	if p.Multiple != nil {
		d.Multiple = *p.Multiple
	}
	if p.OrderDateFrom != nil {
		if err := checkDate(*p.OrderDateFrom); err != nil {
			return err
		}
		d.OrderDateFrom = *p.OrderDateFrom
	}
	if p.OrderDateTo != nil {
		if err := checkDate(*p.OrderDateTo); err != nil {
			return err
		}
		d.OrderDateTo = *p.OrderDateTo
	}
	for name, value := range p.ProductFilters {
		if err := d.setFilter(name, value, opts); err != nil {
			return err
		}
	}
	if p.Locations != nil {
		d.Locations = []string{}
		for _, code := range p.Locations {
			if err := d.selectLocation(code); err != nil {
				return err
			}
		}
	}
	if p.RefundModes != nil {
		if d.RefundModes == nil {
			return ErrNoRefundModes
		}
		mergeBool(&d.RefundModes.StoreCredit, p.RefundModes.StoreCredit)
		mergeBool(&d.RefundModes.BankTransfer, p.RefundModes.BankTransfer)
		mergeBool(&d.RefundModes.OriginalPayment, p.RefundModes.OriginalPayment)
		mergeBool(&d.RefundModes.Others, p.RefundModes.Others)
	}
	if p.Method != nil {
		if !opts.hasMethod(*p.Method) {
			return fmt.Errorf("%w: %s", ErrUnknownMethod, *p.Method)
		}
		d.Method = *p.Method
	}
	if p.ReasonRules != nil {
		mergeBool(&d.ReasonRules.RequirePhoto, p.ReasonRules.RequirePhoto)
		mergeBool(&d.ReasonRules.RequireNote, p.ReasonRules.RequireNote)
		mergeBool(&d.ReasonRules.MandatoryOptIn, p.ReasonRules.MandatoryOptIn)
		if p.ReasonRules.CustomText != nil {
			d.ReasonRules.CustomText = *p.ReasonRules.CustomText
		}
	}
	if p.TestMode != nil {
		d.TestMode = *p.TestMode
	}
	return nil
}

func (d *Draft) setFilter(name, value string, opts Options) error {
	f, ok := opts.filter(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	if value == "" {
		delete(d.ProductFilters, name)
		return nil
	}
	if !hasOption(f.Options, value) {
		return fmt.Errorf("%w: %s=%s", ErrUnknownOption, name, value)
	}
	d.ProductFilters[name] = value
	return nil
}

func checkDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return nil
}

func mergeBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
