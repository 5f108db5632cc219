// Package web embeds the page templates and static assets and renders them
// through gin.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/content"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

//go:embed templates static
var files embed.FS

// Page names accepted by Renderer.Instance.
const (
	PageHome       = "home"
	PageAdmissions = "admissions"
	PageAlumni     = "alumni"
	PageContact    = "contact"
	PageELearning  = "elearning"
	PageResults    = "results"
	PageStaff      = "staff"
	PageSubjects   = "subjects"
	PageError      = "error"
)

// Renderer implements gin's render.HTMLRender with one template set per page,
// each sharing the layout and partials.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// NewRenderer parses every page against the layout. Template helpers look
// messages up in bundle.
func NewRenderer(bundle *content.Bundle) (*Renderer, error) {
	funcs := template.FuncMap{
		"t":           bundle.Message,
		"tlist":       bundle.MessageList,
		"placeholder": func() string { return models.PlaceholderPhoto },
		"year":        func() int { return time.Now().Year() },
		"isActive":    isActive,
	}

	pageFiles, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list page templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/partials/*.html",
			file,
		)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	if _, ok := r.pages[PageError]; !ok {
		return nil, fmt.Errorf("missing %s page template", PageError)
	}
	return r, nil
}

// Instance returns the render for a page. Unknown names are a programming
// error and panic, which the recovery middleware turns into a 500 page.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("web: unknown page template %q", name))
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Static returns the embedded static assets rooted at the static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// isActive marks the nav entry for the current page. Sections own their
// sub-pages, so /subjects-offered stays highlighted on /e-learning.
func isActive(currentPage, href string) bool {
	if href == "/" {
		return currentPage == PageHome
	}
	switch currentPage {
	case PageAdmissions:
		return href == "/admissions"
	case PageSubjects, PageELearning:
		return href == "/subjects-offered"
	case PageAlumni:
		return href == "/alumni"
	case PageStaff:
		return href == "/staff"
	case PageContact:
		return href == "/contact-us"
	}
	return false
}
