package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/rmsconsole/rmsconsole/internal/middleware"
	"github.com/rmsconsole/rmsconsole/internal/notifications"
	"github.com/rmsconsole/rmsconsole/internal/panel"
	"github.com/rmsconsole/rmsconsole/internal/payment"
	"github.com/rmsconsole/rmsconsole/internal/policy"
	"github.com/rmsconsole/rmsconsole/internal/reason"
	"github.com/rmsconsole/rmsconsole/internal/settings"
	"github.com/rmsconsole/rmsconsole/internal/workspace"
	"github.com/sirupsen/logrus"
)

// WorkspaceCookie names the cookie that ties a browser to its panel
const WorkspaceCookie = "rms_workspace"

type APIResponse struct {
	Success      bool                        `json:"success"`
	Data         interface{}                 `json:"data,omitempty"`
	Error        string                      `json:"error,omitempty"`
	Notification *notifications.Notification `json:"notification,omitempty"`
}

type contextKey string

const (
	workspaceKey contextKey = "workspace"
	captureKey   contextKey = "notification_capture"
)

// capture holds the last notification emitted while serving a request
type capture struct {
	mu   sync.Mutex
	last *notifications.Notification
}

func (c *capture) get() *notifications.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// captureNotifier stores notifications on the request that produced them
var captureNotifier = notifications.NotifierFunc(func(ctx context.Context, n notifications.Notification) {
	if c, ok := ctx.Value(captureKey).(*capture); ok {
		c.mu.Lock()
		c.last = &n
		c.mu.Unlock()
	}
})

// workspaceMiddleware resolves the caller's workspace from its cookie,
// creating one on first contact
func (s *Server) workspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(WorkspaceCookie); err == nil {
			id = cookie.Value
		}

		ws, created, err := s.registry.Acquire(id, s.workspaceCreateGuard(r))
		switch {
		case errors.Is(err, workspace.ErrCreateDenied):
			s.writeError(w, r, "Too many new workspaces", http.StatusTooManyRequests)
			return
		case errors.Is(err, workspace.ErrFull):
			s.writeError(w, r, "Too many active workspaces", http.StatusServiceUnavailable)
			return
		case err != nil:
			s.writeError(w, r, "Failed to create workspace", http.StatusInternalServerError)
			return
		}
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     WorkspaceCookie,
				Value:    ws.ID,
				Path:     s.basePath,
				HttpOnly: true,
				Secure:   s.config.EnableTLS,
				SameSite: http.SameSiteLaxMode,
			})
			s.logger.WithField("workspace", ws.ID).Info("Workspace created")
		}

		ctx := context.WithValue(r.Context(), workspaceKey, ws)
		ctx = context.WithValue(ctx, captureKey, &capture{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// workspaceCreateGuard budgets new workspaces per client IP so cookieless
// clients cannot churn the registry and evict real sessions
func (s *Server) workspaceCreateGuard(r *http.Request) func() bool {
	limit := s.config.Workspaces.CreatesPerMinute
	if limit <= 0 {
		return nil
	}
	return func() bool {
		key := "workspace:" + middleware.IPKeyExtractor(r)
		allowed, err := s.rateStore.Allow(key, float64(limit), time.Minute)
		if err != nil {
			s.logger.WithError(err).Warn("Workspace creation budget check failed")
			return true
		}
		if !allowed {
			s.logger.WithField("client", key).Warn("Workspace creation budget exceeded")
		}
		return allowed
	}
}

func workspaceFrom(r *http.Request) *workspace.Workspace {
	ws, _ := r.Context().Value(workspaceKey).(*workspace.Workspace)
	return ws
}

func panelFrom(r *http.Request) *panel.Panel {
	return workspaceFrom(r).Panel
}

func capturedNotification(r *http.Request) *notifications.Notification {
	if c, ok := r.Context().Value(captureKey).(*capture); ok {
		return c.get()
	}
	return nil
}

func (s *Server) setupConsoleAPIRoutes(router *mux.Router) {
	// Endpoints that do not need a workspace
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/csrf", s.handleCSRFToken).Methods("GET")

	api := router.NewRoute().Subrouter()
	api.Use(s.workspaceMiddleware)

	// Panel
	api.HandleFunc("/panel", s.handleGetPanel).Methods("GET")
	api.HandleFunc("/panel/tab", s.handleSelectTab).Methods("PUT")
	api.HandleFunc("/panel/reset", s.handleResetPanel).Methods("POST")

	// Settings
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handlePatchSettings).Methods("PATCH")
	api.HandleFunc("/settings/support", s.handlePatchSupportSettings).Methods("PATCH")
	api.HandleFunc("/settings/keys", s.handleListSettingKeys).Methods("GET")
	api.HandleFunc("/settings/keys", s.handleBulkUpdateSettingKeys).Methods("PUT")
	api.HandleFunc("/settings/keys/{key}", s.handleUpdateSettingKey).Methods("PUT")
	api.HandleFunc("/settings/save", s.handleSaveSettings).Methods("POST")
	api.HandleFunc("/settings/test-error", s.handleTestError).Methods("POST")

	// Return and exchange drafts
	for _, kind := range []policy.Kind{policy.KindReturn, policy.KindExchange} {
		base := "/returns"
		if kind == policy.KindExchange {
			base = "/exchanges"
		}
		api.HandleFunc(base, s.handleGetDraft(kind)).Methods("GET")
		api.HandleFunc(base, s.handlePatchDraft(kind)).Methods("PATCH")
		api.HandleFunc(base+"/locations/{state}", s.handleSelectLocation(kind)).Methods("PUT")
		api.HandleFunc(base+"/locations/{state}", s.handleDeselectLocation(kind)).Methods("DELETE")
	}

	// Payment
	api.HandleFunc("/payment", s.handleGetPayment).Methods("GET")
	api.HandleFunc("/payment", s.handlePatchPayment).Methods("PATCH")
	api.HandleFunc("/payment/save", s.handleSavePayment).Methods("POST")

	// Reasons. Dialog routes come before /reasons/{id}.
	api.HandleFunc("/reasons/dialog", s.handleGetReasonDialog).Methods("GET")
	api.HandleFunc("/reasons/dialog/open", s.handleOpenReasonDialog).Methods("POST")
	api.HandleFunc("/reasons/dialog/form", s.handleSetReasonForm).Methods("PUT")
	api.HandleFunc("/reasons/dialog/submit", s.handleSubmitReasonDialog).Methods("POST")
	api.HandleFunc("/reasons/dialog/close", s.handleCloseReasonDialog).Methods("POST")
	api.HandleFunc("/reasons", s.handleListReasons).Methods("GET")
	api.HandleFunc("/reasons", s.handleCreateReason).Methods("POST")
	api.HandleFunc("/reasons/{id}", s.handleGetReason).Methods("GET")
	api.HandleFunc("/reasons/{id}", s.handleUpdateReason).Methods("PUT")
	api.HandleFunc("/reasons/{id}", s.handleDeleteReason).Methods("DELETE")
	api.HandleFunc("/reasons/{id}/duplicate", s.handleDuplicateReason).Methods("POST")

	// Notifications
	api.HandleFunc("/notifications/stream", s.handleNotificationStream).Methods("GET")
}

// Panel handlers

func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, panelFrom(r).View())
}

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	p := panelFrom(r)
	tab, err := panel.ParseTab(req.Tab)
	if err == nil {
		err = p.SelectTab(tab)
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, p.View())
}

func (s *Server) handleResetPanel(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)
	p.Reset()
	s.writeJSON(w, r, p.View())
}

// Settings handlers

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, panelFrom(r).Settings().Get())
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if !s.decode(w, r, &patch) {
		return
	}
	s.writeJSON(w, r, panelFrom(r).UpdateSettings(patch))
}

func (s *Server) handlePatchSupportSettings(w http.ResponseWriter, r *http.Request) {
	var patch settings.SupportPatch
	if !s.decode(w, r, &patch) {
		return
	}
	s.writeJSON(w, r, panelFrom(r).UpdateSupportSettings(patch))
}

func (s *Server) handleListSettingKeys(w http.ResponseWriter, r *http.Request) {
	sm := panelFrom(r).Settings()
	if category := r.URL.Query().Get("category"); category != "" {
		s.writeJSON(w, r, sm.ListByCategory(category))
		return
	}
	s.writeJSON(w, r, sm.ListAll())
}

func (s *Server) handleUpdateSettingKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req struct {
		Value string `json:"value"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	setting, err := panelFrom(r).SetSetting(key, req.Value)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, setting)
}

func (s *Server) handleBulkUpdateSettingKeys(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Settings map[string]string `json:"settings"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	all, err := panelFrom(r).BulkUpdateSettings(req.Settings)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, all)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)
	p.Save(r.Context())
	s.writeJSON(w, r, p.Settings().Get())
}

func (s *Server) handleTestError(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)
	p.TestError(r.Context())
	s.writeJSON(w, r, p.Settings().Get())
}

// Draft handlers

func (s *Server) handleGetDraft(kind policy.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, panelFrom(r).Editor(kind).View())
	}
}

func (s *Server) handlePatchDraft(kind policy.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch policy.Patch
		if !s.decode(w, r, &patch) {
			return
		}

		editor := panelFrom(r).Editor(kind)
		if _, err := editor.Apply(patch); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, r, editor.View())
	}
}

func (s *Server) handleSelectLocation(kind policy.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor := panelFrom(r).Editor(kind)
		if _, err := editor.SelectLocation(mux.Vars(r)["state"]); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, r, editor.View())
	}
}

func (s *Server) handleDeselectLocation(kind policy.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor := panelFrom(r).Editor(kind)
		if _, err := editor.DeselectLocation(mux.Vars(r)["state"]); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, r, editor.View())
	}
}

// Payment handlers

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, panelFrom(r).PaymentView())
}

func (s *Server) handlePatchPayment(w http.ResponseWriter, r *http.Request) {
	var patch payment.Patch
	if !s.decode(w, r, &patch) {
		return
	}

	p := panelFrom(r)
	if _, err := p.Payment().Update(patch); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, p.PaymentView())
}

func (s *Server) handleSavePayment(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)
	p.Payment().Save(r.Context())
	s.writeJSON(w, r, p.PaymentView())
}

// Reason handlers

func (s *Server) handleListReasons(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, reason.Previews(panelFrom(r).Reasons().List()))
}

func (s *Server) handleGetReason(w http.ResponseWriter, r *http.Request) {
	rs, err := panelFrom(r).Reasons().Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, rs)
}

func (s *Server) handleCreateReason(w http.ResponseWriter, r *http.Request) {
	var form reason.Form
	if !s.decode(w, r, &form) {
		return
	}

	rs, err := panelFrom(r).Reasons().Create(r.Context(), form)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSONStatus(w, r, http.StatusCreated, rs)
}

func (s *Server) handleUpdateReason(w http.ResponseWriter, r *http.Request) {
	var form reason.Form
	if !s.decode(w, r, &form) {
		return
	}

	rs, err := panelFrom(r).Reasons().Update(r.Context(), mux.Vars(r)["id"], form)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, rs)
}

func (s *Server) handleDuplicateReason(w http.ResponseWriter, r *http.Request) {
	rs, err := panelFrom(r).Reasons().Duplicate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSONStatus(w, r, http.StatusCreated, rs)
}

func (s *Server) handleDeleteReason(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rs, deleted := panelFrom(r).Reasons().Delete(r.Context(), id)

	// Deleting an unknown id leaves the list as it is and still succeeds
	s.writeJSON(w, r, map[string]interface{}{
		"id":      id,
		"deleted": deleted,
		"reason":  rs,
	})
}

func (s *Server) handleGetReasonDialog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, panelFrom(r).Reasons().Dialog())
}

func (s *Server) handleOpenReasonDialog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode reason.Mode `json:"mode"`
		ID   string      `json:"id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	m := panelFrom(r).Reasons()
	switch req.Mode {
	case reason.ModeCreate:
		s.writeJSON(w, r, m.OpenCreate())
	case reason.ModeEdit:
		state, err := m.OpenEdit(req.ID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, r, state)
	default:
		s.writeError(w, r, "Invalid dialog mode", http.StatusBadRequest)
	}
}

func (s *Server) handleSetReasonForm(w http.ResponseWriter, r *http.Request) {
	var form reason.Form
	if !s.decode(w, r, &form) {
		return
	}

	state, err := panelFrom(r).Reasons().SetForm(form)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, state)
}

func (s *Server) handleSubmitReasonDialog(w http.ResponseWriter, r *http.Request) {
	m := panelFrom(r).Reasons()
	rs, err := m.Submit(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, map[string]interface{}{
		"reason": rs,
		"dialog": m.Dialog(),
	})
}

func (s *Server) handleCloseReasonDialog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, panelFrom(r).Reasons().Close())
}

// CSRF

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := csrf.Token(r)
	if token != "" {
		w.Header().Set("X-CSRF-Token", token)
	}
	s.writeJSON(w, r, map[string]interface{}{
		"enabled": s.config.Security.CSRFKey != "",
		"token":   token,
	})
}

// Response helpers

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, r, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, data interface{}) {
	s.writeJSONStatus(w, r, http.StatusOK, data)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success:      true,
		Data:         data,
		Notification: capturedNotification(r),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success:      false,
		Error:        message,
		Notification: capturedNotification(r),
	})
	s.logger.WithFields(logrus.Fields{
		"error":  message,
		"status": statusCode,
		"path":   r.URL.Path,
	}).Warn("API error")
}

// writeDomainError maps a domain error to its HTTP status
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, errorMessage(err), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reason.ErrNotFound),
		errors.Is(err, settings.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, policy.ErrTabDisabled),
		errors.Is(err, reason.ErrDialogClosed):
		return http.StatusConflict
	case errors.Is(err, reason.ErrNameRequired),
		errors.Is(err, panel.ErrUnknownTab),
		errors.Is(err, policy.ErrUnknownFilter),
		errors.Is(err, policy.ErrUnknownOption),
		errors.Is(err, policy.ErrUnknownMethod),
		errors.Is(err, policy.ErrUnknownState),
		errors.Is(err, policy.ErrInvalidDays),
		errors.Is(err, policy.ErrInvalidDate),
		errors.Is(err, policy.ErrNoRefundModes),
		errors.Is(err, settings.ErrInvalidValue),
		errors.Is(err, payment.ErrNegativeAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	if errors.Is(err, reason.ErrNameRequired) {
		return "Reason Name is required."
	}
	return err.Error()
}
