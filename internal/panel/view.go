package panel

import (
	"github.com/rmsconsole/rmsconsole/internal/payment"
	"github.com/rmsconsole/rmsconsole/internal/reason"
	"github.com/rmsconsole/rmsconsole/internal/settings"
)

// Header texts of the panel
const (
	Title       = "Return Management System"
	Subtitle    = "Enterprise Admin Configuration Panel"
	Dashboard   = "Configuration Dashboard"
	Description = "Configure your return, exchange, and payment processing settings"
)

// SettingsView is the content of the settings tab
type SettingsView struct {
	Settings settings.AdminSettings `json:"settings"`
	Keys     []settings.Setting     `json:"keys"`
}

// ReasonView is the content of the reason tab
type ReasonView struct {
	Reasons []reason.Preview   `json:"reasons"`
	Dialog  reason.DialogState `json:"dialog"`
}

// View is a snapshot of the whole panel with the active tab's content
type View struct {
	Title       string                 `json:"title"`
	Subtitle    string                 `json:"subtitle"`
	Dashboard   string                 `json:"dashboard"`
	Description string                 `json:"description"`
	Settings    settings.AdminSettings `json:"settings"`
	Tabs        []TabInfo              `json:"tabs"`
	ActiveTab   Tab                    `json:"activeTab"`
	Content     interface{}            `json:"content"`
}

// View renders the panel
func (p *Panel) View() View {
	s := p.settings.Get()
	active := p.ActiveTab()
	return View{
		Title:       Title,
		Subtitle:    Subtitle,
		Dashboard:   Dashboard,
		Description: Description,
		Settings:    s,
		Tabs:        p.tabs(s, active),
		ActiveTab:   active,
		Content:     p.Content(active),
	}
}

// Content renders a single tab
func (p *Panel) Content(t Tab) interface{} {
	switch t {
	case TabReturn:
		return p.returns.View()
	case TabExchange:
		return p.exchanges.View()
	case TabPayment:
		return p.payment.View(p.settings.Get())
	case TabReason:
		return p.ReasonView()
	default:
		return SettingsView{
			Settings: p.settings.Get(),
			Keys:     p.settings.ListAll(),
		}
	}
}

// ReasonView renders the reason tab
func (p *Panel) ReasonView() ReasonView {
	return ReasonView{
		Reasons: reason.Previews(p.reasons.List()),
		Dialog:  p.reasons.Dialog(),
	}
}

// PaymentView renders the payment tab
func (p *Panel) PaymentView() payment.View {
	return p.payment.View(p.settings.Get())
}
