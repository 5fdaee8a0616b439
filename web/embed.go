// Package web embeds the console frontend served by the RMS console.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:frontend/dist
var FrontendAssets embed.FS

// GetFrontendFS returns the embedded frontend rooted at its dist directory
func GetFrontendFS() (fs.FS, error) {
	return fs.Sub(FrontendAssets, "frontend/dist")
}
