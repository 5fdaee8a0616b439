package server

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rmsconsole/rmsconsole/internal/config"
	"github.com/rmsconsole/rmsconsole/internal/notifications"
	"github.com/rmsconsole/rmsconsole/internal/panel"
	"github.com/rmsconsole/rmsconsole/internal/payment"
	"github.com/rmsconsole/rmsconsole/internal/policy"
	"github.com/rmsconsole/rmsconsole/internal/reason"
	"github.com/rmsconsole/rmsconsole/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listReasons(t *testing.T, c *apiClient) []reason.Preview {
	t.Helper()
	code, env := c.do(http.MethodGet, "/reasons", nil)
	require.Equal(t, http.StatusOK, code)
	var reasons []reason.Preview
	decodeData(t, env, &reasons)
	return reasons
}

func TestWorkspaceCookie(t *testing.T) {
	s := setupTestServer(t)
	c := newClient(t, s)

	rec := c.raw(http.MethodGet, "/api/v1/panel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie, ok := c.cookies[WorkspaceCookie]
	require.True(t, ok)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 1, s.Registry().Len())

	// the cookie is only set once
	rec = c.raw(http.MethodGet, "/api/v1/panel", nil)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1, s.Registry().Len())
}

func TestWorkspaceCookie_UnknownIDGetsFreshWorkspace(t *testing.T) {
	s := setupTestServer(t)
	c := newClient(t, s)
	c.cookies[WorkspaceCookie] = &http.Cookie{Name: WorkspaceCookie, Value: "stale"}

	c.do(http.MethodGet, "/panel", nil)
	assert.NotEqual(t, "stale", c.workspace())
	assert.Equal(t, 1, s.Registry().Len())
}

func TestWorkspaceCreationBudgetPerClient(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) { cfg.Workspaces.CreatesPerMinute = 2 })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		code, _ := newClient(t, s).do(http.MethodGet, "/panel", nil)
		codes = append(codes, code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, s.Registry().Len())
}

func TestWorkspaceCreationBudgetKeepsExistingSessions(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) { cfg.Workspaces.CreatesPerMinute = 1 })
	c := newClient(t, s)

	code, _ := c.do(http.MethodGet, "/panel", nil)
	require.Equal(t, http.StatusOK, code)

	code, env := newClient(t, s).do(http.MethodGet, "/panel", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Too many new workspaces", env.Error)

	// a session that already has its cookie is not budgeted
	code, _ = c.do(http.MethodGet, "/panel", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestWorkspaceRegistryFullOfRecentSessions(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.Workspaces.Max = 1
		cfg.Workspaces.EvictionGrace = time.Hour
	})
	first := newClient(t, s)

	code, _ := first.do(http.MethodGet, "/panel", nil)
	require.Equal(t, http.StatusOK, code)

	code, env := newClient(t, s).do(http.MethodGet, "/panel", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "Too many active workspaces", env.Error)

	code, _ = first.do(http.MethodGet, "/panel", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, s.Registry().Len())
}

func TestWorkspacesAreIsolated(t *testing.T) {
	s := setupTestServer(t)
	alice := newClient(t, s)
	bob := newClient(t, s)

	code, _ := alice.do(http.MethodPatch, "/settings", map[string]bool{"enableReturns": false})
	require.Equal(t, http.StatusOK, code)
	code, _ = alice.do(http.MethodDelete, "/reasons/1", nil)
	require.Equal(t, http.StatusOK, code)

	_, env := bob.do(http.MethodGet, "/settings", nil)
	var got settings.AdminSettings
	decodeData(t, env, &got)
	assert.True(t, got.EnableReturns)
	assert.Len(t, listReasons(t, bob), 6)
	assert.Len(t, listReasons(t, alice), 5)

	assert.NotEqual(t, alice.workspace(), bob.workspace())
	assert.Equal(t, 2, s.Registry().Len())
}

func TestGetPanel(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodGet, "/panel", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Nil(t, env.Notification)

	var view struct {
		Title       string          `json:"title"`
		Subtitle    string          `json:"subtitle"`
		Dashboard   string          `json:"dashboard"`
		Description string          `json:"description"`
		Tabs        []panel.TabInfo `json:"tabs"`
		ActiveTab   panel.Tab       `json:"activeTab"`
	}
	decodeData(t, env, &view)

	assert.Equal(t, "Return Management System", view.Title)
	assert.Equal(t, "Enterprise Admin Configuration Panel", view.Subtitle)
	assert.Equal(t, "Configuration Dashboard", view.Dashboard)
	assert.Equal(t, "Configure your return, exchange, and payment processing settings", view.Description)
	assert.Equal(t, panel.TabSettings, view.ActiveTab)
	require.Len(t, view.Tabs, 5)
	for _, tab := range view.Tabs {
		assert.False(t, tab.Disabled, tab.ID)
	}
}

func TestSelectTab(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPut, "/panel/tab", map[string]string{"tab": "reason"})
	require.Equal(t, http.StatusOK, code)
	var view struct {
		ActiveTab panel.Tab `json:"activeTab"`
	}
	decodeData(t, env, &view)
	assert.Equal(t, panel.TabReason, view.ActiveTab)

	code, env = c.do(http.MethodPut, "/panel/tab", map[string]string{"tab": "billing"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "unknown tab")
}

func TestSelectTab_DisabledTab(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	c.do(http.MethodPatch, "/settings", map[string]bool{"enableExchanges": false})

	code, env := c.do(http.MethodPut, "/panel/tab", map[string]string{"tab": "exchange"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, env.Error, "tab is disabled")

	_, env = c.do(http.MethodGet, "/panel", nil)
	var view struct {
		ActiveTab panel.Tab       `json:"activeTab"`
		Tabs      []panel.TabInfo `json:"tabs"`
	}
	decodeData(t, env, &view)
	assert.Equal(t, panel.TabSettings, view.ActiveTab)
	for _, tab := range view.Tabs {
		assert.Equal(t, tab.ID == panel.TabExchange, tab.Disabled, tab.ID)
	}
}

func TestPatchSettings_OnlyTouchesGivenFlag(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPatch, "/settings", map[string]bool{"enableCancel": false})
	require.Equal(t, http.StatusOK, code)

	var got settings.AdminSettings
	decodeData(t, env, &got)
	want := settings.Defaults()
	want.EnableCancel = false
	assert.Equal(t, want, got)
}

func TestPatchSupportSettings_LeavesOtherFlags(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPatch, "/settings/support", map[string]bool{"autoReceiveOnScan": true})
	require.Equal(t, http.StatusOK, code)

	var got settings.AdminSettings
	decodeData(t, env, &got)
	want := settings.Defaults()
	want.SupportSettings.AutoReceiveOnScan = true
	assert.Equal(t, want, got)
}

func TestSettingKeys(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodGet, "/settings/keys", nil)
	require.Equal(t, http.StatusOK, code)
	var all []settings.Setting
	decodeData(t, env, &all)
	assert.Len(t, all, 8)

	_, env = c.do(http.MethodGet, "/settings/keys?category=support", nil)
	var support []settings.Setting
	decodeData(t, env, &support)
	assert.Len(t, support, 5)

	code, env = c.do(http.MethodPut, "/settings/keys/core.enable_returns", map[string]string{"value": "no"})
	require.Equal(t, http.StatusOK, code)
	var one settings.Setting
	decodeData(t, env, &one)
	assert.Equal(t, "false", one.Value)

	code, _ = c.do(http.MethodPut, "/settings/keys/core.enable_returns", map[string]string{"value": "maybe"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodPut, "/settings/keys/core.unknown", map[string]string{"value": "true"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBulkUpdateSettingKeys(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, _ := c.do(http.MethodPut, "/settings/keys", map[string]interface{}{
		"settings": map[string]string{
			"core.enable_cancel":                "false",
			"support.allow_exchange_out_of_stock": "true",
		},
	})
	require.Equal(t, http.StatusOK, code)

	_, env := c.do(http.MethodGet, "/settings", nil)
	var got settings.AdminSettings
	decodeData(t, env, &got)
	assert.False(t, got.EnableCancel)
	assert.True(t, got.SupportSettings.AllowExchangeOutOfStock)

	// one bad key rejects the whole batch
	code, _ = c.do(http.MethodPut, "/settings/keys", map[string]interface{}{
		"settings": map[string]string{
			"core.enable_cancel": "true",
			"core.nope":          "true",
		},
	})
	assert.Equal(t, http.StatusNotFound, code)

	_, env = c.do(http.MethodGet, "/settings", nil)
	decodeData(t, env, &got)
	assert.False(t, got.EnableCancel)
}

func TestSaveSettings(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPost, "/settings/save", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Settings updated successfully", env.Notification.Title)
	assert.Equal(t, "Your configuration has been saved.", env.Notification.Description)
	assert.Equal(t, notifications.VariantDefault, env.Notification.Variant)
	assert.Equal(t, c.workspace(), env.Notification.Workspace)
}

func TestTestError(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPost, "/settings/test-error", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Unable to save", env.Notification.Title)
	assert.Equal(t, "Please check required fields and try again.", env.Notification.Description)
	assert.Equal(t, notifications.VariantDestructive, env.Notification.Variant)

	var got settings.AdminSettings
	decodeData(t, env, &got)
	assert.Equal(t, settings.Defaults(), got)
}

func TestInvalidRequestBody(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	for _, path := range []string{"/api/v1/settings", "/api/v1/returns", "/api/v1/payment"} {
		rec := c.raw(http.MethodPatch, path, strings.NewReader("{not json"))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Invalid request body", path)
	}
}

func TestReturnDraft(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodGet, "/returns", nil)
	require.Equal(t, http.StatusOK, code)
	var view policy.View
	decodeData(t, env, &view)
	assert.False(t, view.Disabled)
	require.NotNil(t, view.Draft)
	require.NotNil(t, view.Options)
	assert.True(t, view.Options.RefundModes)

	code, env = c.do(http.MethodPatch, "/returns", map[string]interface{}{
		"days":     30,
		"testMode": true,
	})
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &view)
	assert.Equal(t, 30, view.Draft.Days)
	assert.NotNil(t, view.TestBanner)

	code, env = c.do(http.MethodPatch, "/returns", map[string]interface{}{"days": -1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "days")

	code, _ = c.do(http.MethodPatch, "/returns", map[string]interface{}{"method": "teleport"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodPatch, "/returns", map[string]interface{}{"orderDateFrom": "01/02/2024"})
	assert.Equal(t, http.StatusBadRequest, code)

	// failed patches leave the draft alone
	_, env = c.do(http.MethodGet, "/returns", nil)
	decodeData(t, env, &view)
	assert.Equal(t, 30, view.Draft.Days)
}

func TestDraftLocations_Idempotent(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	var view policy.View
	for i := 0; i < 2; i++ {
		code, env := c.do(http.MethodPut, "/returns/locations/FL", nil)
		require.Equal(t, http.StatusOK, code)
		decodeData(t, env, &view)
	}
	assert.Equal(t, 1, countOf(view.Draft.Locations, "FL"))

	for i := 0; i < 2; i++ {
		code, env := c.do(http.MethodDelete, "/returns/locations/FL", nil)
		require.Equal(t, http.StatusOK, code)
		decodeData(t, env, &view)
	}
	assert.Equal(t, 0, countOf(view.Draft.Locations, "FL"))

	code, _ := c.do(http.MethodPut, "/returns/locations/ZZ", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = c.do(http.MethodDelete, "/exchanges/locations/ZZ", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func countOf(values []string, v string) int {
	n := 0
	for _, x := range values {
		if x == v {
			n++
		}
	}
	return n
}

func TestExchangeDraft(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodGet, "/exchanges", nil)
	require.Equal(t, http.StatusOK, code)
	var view policy.View
	decodeData(t, env, &view)
	require.NotNil(t, view.StockWarning)
	assert.Equal(t, "Out of Stock Exchange Disabled", view.StockWarning.Title)

	code, _ = c.do(http.MethodPatch, "/exchanges", map[string]interface{}{
		"refundModes": map[string]bool{"others": true},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	c.do(http.MethodPatch, "/settings/support", map[string]bool{"allowExchangeOutOfStock": true})
	_, env = c.do(http.MethodGet, "/exchanges", nil)
	view = policy.View{}
	decodeData(t, env, &view)
	assert.Nil(t, view.StockWarning)
}

func TestDisabledDraftHasNoForm(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	c.do(http.MethodPatch, "/settings", map[string]bool{"enableReturns": false})

	code, env := c.do(http.MethodGet, "/returns", nil)
	require.Equal(t, http.StatusOK, code)
	var view policy.View
	decodeData(t, env, &view)
	assert.True(t, view.Disabled)
	assert.Nil(t, view.Draft)
	assert.Nil(t, view.Options)
	require.NotNil(t, view.Placeholder)
	assert.Equal(t, "Returns Not Enabled", view.Placeholder.Title)

	code, _ = c.do(http.MethodPatch, "/returns", map[string]interface{}{"days": 10})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = c.do(http.MethodPut, "/returns/locations/FL", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestPayment(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodGet, "/payment", nil)
	require.Equal(t, http.StatusOK, code)
	var view payment.View
	decodeData(t, env, &view)
	assert.Equal(t, "Returns: Enabled", view.Summary.Returns.Label)
	assert.Equal(t, payment.DefaultConfig(), view.Config)

	code, env = c.do(http.MethodPatch, "/payment", map[string]interface{}{
		"processingTime":  "1-2 business days",
		"autoRefundLimit": 2000,
	})
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &view)
	assert.Equal(t, "1-2 business days", view.Config.ProcessingTime)
	assert.Equal(t, 2000.0, view.Config.AutoRefundLimit)

	code, _ = c.do(http.MethodPatch, "/payment", map[string]interface{}{"manualApprovalThreshold": -5})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = c.do(http.MethodPost, "/payment/save", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Payment settings updated", env.Notification.Title)
	assert.Equal(t, "Refund processing configurations have been saved successfully.", env.Notification.Description)
}

func TestCreateReason(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	for _, name := range []string{"", "   "} {
		code, env := c.do(http.MethodPost, "/reasons", reason.Form{Name: name})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Reason Name is required.", env.Error)
		require.NotNil(t, env.Notification)
		assert.Equal(t, "Validation Error", env.Notification.Title)
		assert.Equal(t, notifications.VariantDestructive, env.Notification.Variant)
	}
	assert.Len(t, listReasons(t, c), 6)

	code, env := c.do(http.MethodPost, "/reasons", reason.Form{Name: "Late Fee", Message: "**Late** return"})
	require.Equal(t, http.StatusCreated, code)
	var created reason.Reason
	decodeData(t, env, &created)
	assert.Equal(t, "Late Fee", created.Name)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Reason created successfully", env.Notification.Title)
	assert.Equal(t, `"Late Fee" has been added to your reason list.`, env.Notification.Description)

	reasons := listReasons(t, c)
	require.Len(t, reasons, 7)
	assert.Equal(t, created.ID, reasons[6].ID)
	assert.Contains(t, reasons[6].MessageHTML, "<strong>Late</strong>")
}

func TestUpdateReason(t *testing.T) {
	c := newClient(t, setupTestServer(t))
	before := listReasons(t, c)

	code, env := c.do(http.MethodPut, "/reasons/2", reason.Form{Name: "Wrong Size - Updated", Message: "Size mismatch"})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Reason updated successfully", env.Notification.Title)
	assert.Equal(t, `"Wrong Size - Updated" has been updated.`, env.Notification.Description)

	after := listReasons(t, c)
	require.Len(t, after, len(before))
	for i := range after {
		if after[i].ID == "2" {
			assert.Equal(t, "Wrong Size - Updated", after[i].Name)
			continue
		}
		assert.Equal(t, before[i].Reason, after[i].Reason)
	}

	code, _ = c.do(http.MethodPut, "/reasons/999", reason.Form{Name: "Ghost"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodPut, "/reasons/2", reason.Form{Name: " "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDuplicateReason(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPost, "/reasons/1/duplicate", nil)
	require.Equal(t, http.StatusCreated, code)

	var dup reason.Reason
	decodeData(t, env, &dup)
	assert.Equal(t, "Defective Item (Copy)", dup.Name)
	assert.NotEqual(t, "1", dup.ID)
	assert.True(t, dup.RequireNote)
	assert.True(t, dup.RequireMedia)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Reason duplicated", env.Notification.Title)
	assert.Equal(t, `"Defective Item (Copy)" has been created.`, env.Notification.Description)

	code, _ = c.do(http.MethodPost, "/reasons/999/duplicate", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteReason(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodDelete, "/reasons/3", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Reason deleted", env.Notification.Title)
	assert.Equal(t, `"Not as Described" has been removed.`, env.Notification.Description)
	assert.Len(t, listReasons(t, c), 5)

	code, env = c.do(http.MethodDelete, "/reasons/3", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, env.Notification)
	var result struct {
		Deleted bool `json:"deleted"`
	}
	decodeData(t, env, &result)
	assert.False(t, result.Deleted)
	assert.Len(t, listReasons(t, c), 5)
}

func TestGetReason(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodGet, "/reasons/4", nil)
	require.Equal(t, http.StatusOK, code)
	var r reason.Reason
	decodeData(t, env, &r)
	assert.Equal(t, "Changed Mind", r.Name)

	code, env = c.do(http.MethodGet, "/reasons/404", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestReasonDialog_CreateFlow(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPost, "/reasons/dialog/open", map[string]string{"mode": "create"})
	require.Equal(t, http.StatusOK, code)
	var state reason.DialogState
	decodeData(t, env, &state)
	assert.True(t, state.Open)
	assert.Equal(t, "Create New Reason", state.Title)
	assert.Equal(t, "Create Reason", state.Submit)
	assert.Empty(t, state.EditingID)

	// blank name keeps the dialog open
	code, _ = c.do(http.MethodPut, "/reasons/dialog/form", reason.Form{Name: "  "})
	require.Equal(t, http.StatusOK, code)
	code, env = c.do(http.MethodPost, "/reasons/dialog/submit", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Validation Error", env.Notification.Title)

	_, env = c.do(http.MethodGet, "/reasons/dialog", nil)
	decodeData(t, env, &state)
	assert.True(t, state.Open)
	assert.Len(t, listReasons(t, c), 6)

	c.do(http.MethodPut, "/reasons/dialog/form", reason.Form{Name: "Late Fee"})
	code, env = c.do(http.MethodPost, "/reasons/dialog/submit", nil)
	require.Equal(t, http.StatusOK, code)
	var result struct {
		Reason reason.Reason      `json:"reason"`
		Dialog reason.DialogState `json:"dialog"`
	}
	decodeData(t, env, &result)
	assert.Equal(t, "Late Fee", result.Reason.Name)
	assert.False(t, result.Dialog.Open)
	assert.Empty(t, result.Dialog.EditingID)
	assert.Len(t, listReasons(t, c), 7)
}

func TestReasonDialog_EditFlow(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, env := c.do(http.MethodPost, "/reasons/dialog/open", map[string]string{"mode": "edit", "id": "2"})
	require.Equal(t, http.StatusOK, code)
	var state reason.DialogState
	decodeData(t, env, &state)
	assert.Equal(t, "Edit Reason", state.Title)
	assert.Equal(t, "Update Reason", state.Submit)
	assert.Equal(t, "2", state.EditingID)
	assert.Equal(t, "Wrong Size", state.Form.Name)

	form := state.Form
	form.Name = "Wrong Size - Updated"
	c.do(http.MethodPut, "/reasons/dialog/form", form)
	code, env = c.do(http.MethodPost, "/reasons/dialog/submit", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Reason updated successfully", env.Notification.Title)

	code, env = c.do(http.MethodPost, "/reasons/dialog/close", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &state)
	assert.False(t, state.Open)
}

func TestReasonDialog_Errors(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	code, _ := c.do(http.MethodPost, "/reasons/dialog/open", map[string]string{"mode": "edit", "id": "999"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env := c.do(http.MethodPost, "/reasons/dialog/open", map[string]string{"mode": "view"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid dialog mode", env.Error)

	code, _ = c.do(http.MethodPut, "/reasons/dialog/form", reason.Form{Name: "x"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = c.do(http.MethodPost, "/reasons/dialog/submit", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestResetPanel(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	c.do(http.MethodPatch, "/settings", map[string]bool{"enableReturns": false})
	c.do(http.MethodDelete, "/reasons/1", nil)
	c.do(http.MethodPut, "/panel/tab", map[string]string{"tab": "payment"})

	code, env := c.do(http.MethodPost, "/panel/reset", nil)
	require.Equal(t, http.StatusOK, code)

	var view struct {
		Settings  settings.AdminSettings `json:"settings"`
		ActiveTab panel.Tab              `json:"activeTab"`
	}
	decodeData(t, env, &view)
	assert.Equal(t, settings.Defaults(), view.Settings)
	assert.Equal(t, panel.TabSettings, view.ActiveTab)
	assert.Len(t, listReasons(t, c), 6)
}

func TestRouteOrdering_DialogNotCapturedByID(t *testing.T) {
	c := newClient(t, setupTestServer(t))

	// /reasons/dialog must not be treated as a reason id
	code, env := c.do(http.MethodGet, "/reasons/dialog", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, bytes.Contains(env.Data, []byte(`"open":false`)))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{reason.ErrNotFound, http.StatusNotFound},
		{settings.ErrNotFound, http.StatusNotFound},
		{policy.ErrTabDisabled, http.StatusConflict},
		{reason.ErrDialogClosed, http.StatusConflict},
		{reason.ErrNameRequired, http.StatusBadRequest},
		{panel.ErrUnknownTab, http.StatusBadRequest},
		{policy.ErrUnknownState, http.StatusBadRequest},
		{payment.ErrNegativeAmount, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
