package policy

import (
	"fmt"

	"github.com/rmsconsole/rmsconsole/internal/settings"
)

// Notice is a titled message block shown in a tab
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// View is what the return or exchange tab renders. A disabled tab carries
// only its placeholder; no draft and no options.
type View struct {
	Kind          Kind     `json:"kind"`
	Disabled      bool     `json:"disabled"`
	Placeholder   *Notice  `json:"placeholder,omitempty"`
	TestBanner    *Notice  `json:"testBanner,omitempty"`
	StockWarning  *Notice  `json:"stockWarning,omitempty"`
	InventoryNote string   `json:"inventoryNote,omitempty"`
	Draft         *Draft   `json:"draft,omitempty"`
	Options       *Options `json:"options,omitempty"`
}

var placeholders = map[Kind]Notice{
	KindReturn: {
		Title:   "Returns Not Enabled",
		Message: "Enable returns in the Settings tab to configure return options.",
	},
	KindExchange: {
		Title:   "Exchanges Not Enabled",
		Message: "Enable exchanges in the Settings tab to configure exchange options.",
	},
}

var testBanners = map[Kind]Notice{
	KindReturn: {
		Title:   "Test Mode Active",
		Message: "Return logic simulation is enabled. Customer flows will use these test configurations.",
	},
	KindExchange: {
		Title:   "Exchange Test Mode Active",
		Message: "Exchange logic simulation is enabled. Customer flows will use these test configurations for exchange requests.",
	},
}

var stockWarning = Notice{
	Title:   "Out of Stock Exchange Disabled",
	Message: "Customers cannot exchange items for out-of-stock products. Enable this in Settings → Advanced Support Settings.",
}

// View renders the tab against the current settings
func (e *Editor) View() View {
	return e.render(e.settings())
}

func (e *Editor) render(s settings.AdminSettings) View {
	v := View{Kind: e.kind}
	if !enabled(e.kind, s) {
		p := placeholders[e.kind]
		v.Disabled = true
		v.Placeholder = &p
		return v
	}

	d := e.Draft()
	opts := e.opts
	v.Draft = &d
	v.Options = &opts

	if d.TestMode {
		b := testBanners[e.kind]
		v.TestBanner = &b
	}
	if e.kind == KindExchange {
		allowed := s.SupportSettings.AllowExchangeOutOfStock
		if !allowed {
			w := stockWarning
			v.StockWarning = &w
		}
		v.InventoryNote = inventoryNote(allowed)
	}
	return v
}

func inventoryNote(allowed bool) string {
	state := "not allowed"
	if allowed {
		state = "allowed"
	}
	return fmt.Sprintf("Exchange availability is linked to real-time inventory. Out-of-stock items are %s for exchange.", state)
}
