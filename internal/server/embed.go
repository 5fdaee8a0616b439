package server

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rmsconsole/rmsconsole/web"
	"github.com/sirupsen/logrus"
)

// spaHandler serves the embedded console with fallback to index.html for
// client-side routes
type spaHandler struct {
	staticFS   http.FileSystem
	indexBytes []byte
	basePath   string // "/" or a prefix such as "/admin"
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if h.basePath != "/" {
		if !strings.HasPrefix(urlPath, h.basePath) {
			http.NotFound(w, r)
			return
		}
		urlPath = strings.TrimPrefix(urlPath, h.basePath)
	}

	filePath := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if filePath == "" || filePath == "index.html" {
		h.serveIndex(w)
		return
	}

	file, err := h.staticFS.Open(filePath)
	if err == nil {
		defer file.Close()
		if stat, err := file.Stat(); err == nil && !stat.IsDir() {
			if rs, ok := file.(io.ReadSeeker); ok {
				http.ServeContent(w, r, filePath, stat.ModTime(), rs)
				return
			}
		}
	}

	// Missing static assets are real 404s
	if strings.HasPrefix(filePath, "assets/") || path.Ext(filePath) != "" {
		http.NotFound(w, r)
		return
	}

	h.serveIndex(w)
}

func (h *spaHandler) serveIndex(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(h.indexBytes)
}

// newSPAHandler reads index.html and injects the base path the frontend
// uses to reach the API
func newSPAHandler(staticFS http.FileSystem, basePath string) (*spaHandler, error) {
	indexFile, err := staticFS.Open("index.html")
	if err != nil {
		return nil, err
	}
	defer indexFile.Close()

	indexBytes, err := io.ReadAll(indexFile)
	if err != nil {
		return nil, err
	}

	base := basePath
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	inject := []byte(fmt.Sprintf("\n<base href=%q>\n<script>window.BASE_PATH = %q;</script>", base, base))

	if i := bytes.Index(indexBytes, []byte("<head>")); i != -1 {
		i += len("<head>")
		modified := make([]byte, 0, len(indexBytes)+len(inject))
		modified = append(modified, indexBytes[:i]...)
		modified = append(modified, inject...)
		modified = append(modified, indexBytes[i:]...)
		indexBytes = modified
	}

	return &spaHandler{
		staticFS:   staticFS,
		indexBytes: indexBytes,
		basePath:   basePath,
	}, nil
}

// setupEmbeddedFrontend sets up the embedded frontend handler
func (s *Server) setupEmbeddedFrontend() (http.Handler, error) {
	frontendFS, err := web.GetFrontendFS()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded frontend: %w", err)
	}

	if entries, err := fs.ReadDir(frontendFS, "."); err == nil {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		logrus.WithField("files", names).Debug("Embedded frontend files")
	}

	handler, err := newSPAHandler(http.FS(frontendFS), s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create SPA handler: %w", err)
	}

	logrus.WithField("base_path", s.basePath).Info("Embedded web console enabled")
	return handler, nil
}
