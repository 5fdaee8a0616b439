package settings

import "time"

// AdminSettings holds the feature flags of the return management system
type AdminSettings struct {
	EnableReturns   bool            `json:"enableReturns"`
	EnableExchanges bool            `json:"enableExchanges"`
	EnableCancel    bool            `json:"enableCancel"`
	SupportSettings SupportSettings `json:"supportSettings"`
}

// SupportSettings holds the secondary policy flags for edge-case returns and exchanges
type SupportSettings struct {
	ReturnOutsideWindow     bool `json:"returnOutsideWindow"`
	ReturnOutOfStock        bool `json:"returnOutOfStock"`
	AutoArchiveOnRefund     bool `json:"autoArchiveOnRefund"`
	AutoReceiveOnScan       bool `json:"autoReceiveOnScan"`
	AllowExchangeOutOfStock bool `json:"allowExchangeOutOfStock"`
}

// Defaults returns the settings a fresh panel starts with
func Defaults() AdminSettings {
	return AdminSettings{
		EnableReturns:   true,
		EnableExchanges: true,
		EnableCancel:    true,
		SupportSettings: SupportSettings{
			ReturnOutsideWindow:     false,
			ReturnOutOfStock:        true,
			AutoArchiveOnRefund:     true,
			AutoReceiveOnScan:       false,
			AllowExchangeOutOfStock: false,
		},
	}
}

// Patch is a partial update of the top-level flags. Nil fields keep their value.
type Patch struct {
	EnableReturns   *bool `json:"enableReturns,omitempty"`
	EnableExchanges *bool `json:"enableExchanges,omitempty"`
	EnableCancel    *bool `json:"enableCancel,omitempty"`
}

// SupportPatch is a partial update of the support flags. Nil fields keep their value.
type SupportPatch struct {
	ReturnOutsideWindow     *bool `json:"returnOutsideWindow,omitempty"`
	ReturnOutOfStock        *bool `json:"returnOutOfStock,omitempty"`
	AutoArchiveOnRefund     *bool `json:"autoArchiveOnRefund,omitempty"`
	AutoReceiveOnScan       *bool `json:"autoReceiveOnScan,omitempty"`
	AllowExchangeOutOfStock *bool `json:"allowExchangeOutOfStock,omitempty"`
}

// Bool returns a pointer to b, for building patches
func Bool(b bool) *bool {
	return &b
}

// Setting is the keyed view of a single flag
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Editable    bool      `json:"editable"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category represents a group of related settings
type Category string

const (
	CategoryCore    Category = "core"
	CategorySupport Category = "support"
)

// Type represents the data type of a setting
type Type string

const (
	TypeBool Type = "bool"
)

// UpdateRequest represents a request to update a setting
type UpdateRequest struct {
	Value string `json:"value"`
}

// BulkUpdateRequest represents a request to update multiple settings
type BulkUpdateRequest struct {
	Settings map[string]string `json:"settings"` // key -> value
}
