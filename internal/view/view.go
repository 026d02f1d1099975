// Package view renders the embedded HTML pages. Templating is kept
// deliberately minimal; every page shares one layout and receives the
// consumed flash messages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages are the content templates, each paired with the shared layout.
var pages = []string{
	"catalog",
	"category",
	"category_form",
	"category_delete",
	"item",
	"item_form",
	"item_delete",
	"login",
}

// Page is the data every template receives.
type Page struct {
	Title    string
	Username string
	Flashes  []string
	Data     any
}

// Renderer holds the parsed page templates.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = t
	}
	return &Renderer{templates: templates}, nil
}

// Render writes the named page into w.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout", page)
}
