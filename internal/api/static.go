package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// staticHandler serves the web client from dir. Unknown paths fall back to
// index.html; unknown /api/ paths get a JSON 404.
func staticHandler(dir string, logger *slog.Logger) http.Handler {
	resp := newResponder(logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			resp.writeError(r.Context(), w, http.StatusNotFound, nil)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean(urlPath))

		info, err := os.Stat(filePath)
		if err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}
