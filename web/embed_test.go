package web

import (
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFrontendFS_ContainsIndexHTML(t *testing.T) {
	frontendFS, err := GetFrontendFS()
	require.NoError(t, err)

	file, err := frontendFS.Open("index.html")
	require.NoError(t, err, "Should be able to open index.html")
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)

	html := string(content)
	assert.Contains(t, strings.ToLower(html), "<!doctype html>")
	assert.Contains(t, html, "<head>", "SPA handler injects the base path after <head>")
	assert.Contains(t, html, "Return Management System")
	assert.Contains(t, html, "assets/app.js")
}

func TestGetFrontendFS_Assets(t *testing.T) {
	frontendFS, err := GetFrontendFS()
	require.NoError(t, err)

	tests := []struct {
		path     string
		contains string
	}{
		{"assets/app.js", "/api/v1"},
		{"assets/styles.css", ".toast"},
		{"favicon.svg", "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			content, err := fs.ReadFile(frontendFS, tt.path)
			require.NoError(t, err)
			assert.Contains(t, string(content), tt.contains)
		})
	}
}

func TestAppJS_UsesConsoleAPI(t *testing.T) {
	frontendFS, err := GetFrontendFS()
	require.NoError(t, err)

	content, err := fs.ReadFile(frontendFS, "assets/app.js")
	require.NoError(t, err)
	js := string(content)

	// reason create and edit go through the dialog, never window.prompt
	for _, endpoint := range []string{
		"/reasons/dialog/open",
		"/reasons/dialog/form",
		"/reasons/dialog/submit",
		"/reasons/dialog/close",
	} {
		assert.Contains(t, js, endpoint)
	}
	assert.Contains(t, js, `mode: "edit"`)
	assert.NotContains(t, js, "window.prompt")

	// draft and payment fields are editable
	assert.Contains(t, js, `request("PATCH", "/payment"`)
	for _, key := range []string{"days", "orderDateFrom", "orderDateTo", "productFilters", "method", "refundModes", "reasonRules"} {
		assert.Contains(t, js, key+":", "draft patch sends %s", key)
	}
	for _, key := range []string{"processingTime", "slaGuidelines", "autoRefundLimit", "manualApprovalThreshold", "compliance"} {
		assert.Contains(t, js, key+":", "payment patch sends %s", key)
	}
}

func TestGetFrontendFS_NoPathTraversal(t *testing.T) {
	frontendFS, err := GetFrontendFS()
	require.NoError(t, err)

	_, err = frontendFS.Open("../embed.go")
	assert.Error(t, err)
}
