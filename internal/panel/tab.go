package panel

import (
	"errors"
	"fmt"
)

// Tab identifies one section of the panel
type Tab string

const (
	TabSettings Tab = "settings"
	TabReturn   Tab = "return"
	TabExchange Tab = "exchange"
	TabPayment  Tab = "payment"
	TabReason   Tab = "reason"
)

// ErrUnknownTab is returned for a tab id outside the fixed set
var ErrUnknownTab = errors.New("unknown tab")

// Tabs in display order
var allTabs = []struct {
	id    Tab
	label string
}{
	{TabSettings, "Settings"},
	{TabReturn, "Return"},
	{TabExchange, "Exchange"},
	{TabPayment, "Payment"},
	{TabReason, "Reason"},
}

// ParseTab validates a tab id
func ParseTab(s string) (Tab, error) {
	for _, t := range allTabs {
		if string(t.id) == s {
			return t.id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// TabInfo is a tab trigger as the UI renders it
type TabInfo struct {
	ID       Tab    `json:"id"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
	Active   bool   `json:"active"`
}
