package policy

// Kind distinguishes the return draft from the exchange draft
type Kind string

const (
	KindReturn   Kind = "return"
	KindExchange Kind = "exchange"
)

// Option is one selectable value and its display label
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Filter is a single-choice product filter
type Filter struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// Options lists everything a draft of one kind may be set to
type Options struct {
	Filters     []Filter `json:"filters"`
	Methods     []Option `json:"methods"`
	States      []string `json:"states"`
	RefundModes bool     `json:"refundModes"`
}

// States are the location filter choices, in display order
var States = []string{"CA", "NY", "TX", "FL", "IL", "WA", "PA", "OH"}

var defaultLocations = []string{"CA", "NY", "TX"}

var returnOptions = Options{
	Filters: []Filter{
		{Name: "tag", Label: "Product Tag", Options: []Option{
			{"electronics", "Electronics"},
			{"clothing", "Clothing"},
			{"home", "Home & Garden"},
		}},
		{Name: "discountCode", Label: "Discount Code", Options: []Option{
			{"summer20", "SUMMER20"},
			{"welcome10", "WELCOME10"},
			{"loyalty15", "LOYALTY15"},
		}},
		{Name: "productType", Label: "Product Type", Options: []Option{
			{"physical", "Physical Product"},
			{"digital", "Digital Product"},
			{"service", "Service"},
		}},
		{Name: "vendor", Label: "Vendor", Options: []Option{
			{"acme", "Acme Corp"},
			{"globex", "Globex Industries"},
			{"initech", "Initech"},
		}},
		{Name: "collection", Label: "Collection", Options: []Option{
			{"summer", "Summer Collection"},
			{"winter", "Winter Collection"},
			{"limited", "Limited Edition"},
		}},
	},
	Methods: []Option{
		{"label", "Send Return Label"},
		{"self-ship", "Ship Back Myself"},
		{"store-return", "Return at Store"},
	},
	States:      States,
	RefundModes: true,
}

var exchangeOptions = Options{
	Filters: []Filter{
		{Name: "tag", Label: "Product Tag", Options: []Option{
			{"electronics", "Electronics"},
			{"clothing", "Clothing"},
			{"home", "Home & Garden"},
			{"exchangeable", "Exchangeable Items"},
		}},
		{Name: "discountCode", Label: "Discount Code", Options: []Option{
			{"summer20", "SUMMER20"},
			{"welcome10", "WELCOME10"},
			{"loyalty15", "LOYALTY15"},
			{"exchange5", "EXCHANGE5"},
		}},
		{Name: "productType", Label: "Product Type", Options: []Option{
			{"physical", "Physical Product"},
			{"clothing", "Clothing & Apparel"},
			{"accessories", "Accessories"},
			{"home-goods", "Home Goods"},
		}},
		{Name: "vendor", Label: "Vendor", Options: []Option{
			{"acme", "Acme Corp"},
			{"globex", "Globex Industries"},
			{"initech", "Initech"},
			{"fashion-plus", "Fashion Plus"},
		}},
		{Name: "collection", Label: "Collection", Options: []Option{
			{"summer", "Summer Collection"},
			{"winter", "Winter Collection"},
			{"limited", "Limited Edition"},
			{"exchange-friendly", "Exchange Friendly"},
		}},
		{Name: "sizeCompatibility", Label: "Size Compatibility", Options: []Option{
			{"same-size", "Same Size Only"},
			{"size-up", "Size Up Allowed"},
			{"size-down", "Size Down Allowed"},
			{"any-size", "Any Size"},
		}},
	},
	Methods: []Option{
		{"label", "Send Exchange Label"},
		{"self-ship", "Ship Back Myself"},
		{"store-exchange", "Exchange at Store"},
		{"direct-ship", "Direct Ship Replacement"},
	},
	States: States,
}

// OptionsFor returns the option table for a kind
func OptionsFor(kind Kind) Options {
	if kind == KindExchange {
		return exchangeOptions
	}
	return returnOptions
}

func (o Options) filter(name string) (Filter, bool) {
	for _, f := range o.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

func (o Options) hasMethod(method string) bool {
	return hasOption(o.Methods, method)
}

func hasOption(opts []Option, value string) bool {
	for _, opt := range opts {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func stateIndex(code string) int {
	for i, s := range States {
		if s == code {
			return i
		}
	}
	return -1
}
