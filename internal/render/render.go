// Package render turns an assembled brochure into HTML pages and compiles
// them to a print-ready PDF through headless chromium.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// pageTemplates maps page IDs to their template names.
var pageTemplates = map[string]string{
	"cover":      "cover.html.tmpl",
	"details":    "details.html.tmpl",
	"gallery":    "gallery.html.tmpl",
	"aerial":     "aerial.html.tmpl",
	"floor_plan": "floor_plan.html.tmpl",
	"back":       "back.html.tmpl",
}

// Renderer renders brochure pages from the embedded template set.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded page templates.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// pageContext is the data passed to each page template.
type pageContext struct {
	Doc   DocumentData
	Zones map[string]string
}

// documentContext is the data passed to the outer document template.
type documentContext struct {
	Doc   DocumentData
	Pages []template.HTML
}

// Page renders a single page to HTML. Unknown page IDs are an error;
// callers filter the sequence before rendering.
func (r *Renderer) Page(doc DocumentData, page PageView) (string, error) {
	name, ok := pageTemplates[page.ID]
	if !ok {
		return "", fmt.Errorf("unknown page template %q", page.ID)
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, pageContext{Doc: doc, Zones: page.Zones}); err != nil {
		return "", fmt.Errorf("render page %s: %w", page.ID, err)
	}
	return buf.String(), nil
}

// Document renders the full brochure HTML: every page in order wrapped in
// the print layout. The returned page count is the number of rendered pages.
func (r *Renderer) Document(doc DocumentData, pages []PageView) (string, int, error) {
	rendered := make([]template.HTML, 0, len(pages))
	for _, page := range pages {
		html, err := r.Page(doc, page)
		if err != nil {
			return "", 0, err
		}
		rendered = append(rendered, template.HTML(html)) //nolint:gosec // output of our own templates
	}

	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, "document.html.tmpl", documentContext{Doc: doc, Pages: rendered})
	if err != nil {
		return "", 0, fmt.Errorf("render document: %w", err)
	}
	return buf.String(), len(rendered), nil
}
