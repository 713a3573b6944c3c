package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/outputdir"
)

// ViewHandler serves files saved in the output directory under
// /view?filename=..&subfolder=..&type=output.
type ViewHandler struct {
	resolver outputdir.Resolver
	logger   *zap.Logger
}

func NewViewHandler(resolver outputdir.Resolver, logger *zap.Logger) http.Handler {
	return &ViewHandler{
		resolver: resolver,
		logger:   logger,
	}
}

func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	if t := q.Get("type"); t != "" && t != "output" {
		http.Error(w, "unsupported type", http.StatusBadRequest)
		return
	}
	name := q.Get("filename")
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}

	root, err := h.resolver.OutputDirectory()
	if err != nil {
		h.logger.Error("resolve output directory", zap.Error(err))
		http.Error(w, "output directory unavailable", http.StatusInternalServerError)
		return
	}
	path := filepath.Join(root, filepath.FromSlash(q.Get("subfolder")), name)
	if !outputdir.Contains(root, path) {
		http.Error(w, "invalid subfolder", http.StatusForbidden)
		return
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("open output file", zap.String("path", path), zap.Error(err))
		http.Error(w, "cannot open file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}
