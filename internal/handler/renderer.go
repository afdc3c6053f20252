package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// Renderer manages template parsing and rendering with isolated template sets.
// Every page is parsed into its own clone of the layout so that pages can
// define the same block names without clashing.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses the templates in fsys. layout.html defines "base";
// files prefixed with "_" are partials shared by every page; every other
// .html file is a page keyed by its base name without extension.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	baseTmpl, err := template.New("base").Funcs(TemplateFuncs()).ParseFS(fsys, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates: %w", err)
	}

	var pages []string
	for _, f := range files {
		switch {
		case f == "layout.html":
		case strings.HasPrefix(f, "_"):
			if _, err := baseTmpl.ParseFS(fsys, f); err != nil {
				return nil, fmt.Errorf("failed to parse partial %s: %w", f, err)
			}
		default:
			pages = append(pages, f)
		}
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		pageTmpl, err := baseTmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone template for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseFS(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		name := strings.TrimSuffix(page, path.Ext(page))
		templates[name] = pageTmpl
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// Execute returns the template set for a page.
func (r *Renderer) Execute(name string) (*template.Template, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return tmpl, nil
}

// Render executes the full page layout for name into w.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	tmpl, err := r.Execute(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderHTTP renders a full page with status 200.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data interface{}) {
	r.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a full page with the given status. The page is
// buffered so a failing template never produces a half-written response.
func (r *Renderer) RenderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("render failed", "template", name, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderFragment renders a single named template (a partial) from the page
// set of page, without the layout.
func (r *Renderer) RenderFragment(w http.ResponseWriter, page, name string, data interface{}) {
	tmpl, err := r.Execute(page)
	if err != nil {
		r.logger.Error("render failed", "template", page, "error", err)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("render failed", "template", page, "fragment", name, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
