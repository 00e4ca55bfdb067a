// Package templates renders the HTML pages of the shortener.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/atinyakov/go-shortage/internal/models"
)

//go:embed html/*.html
var files embed.FS

// Page names.
const (
	Message    = "message"
	Login      = "login"
	Index      = "index"
	Registered = "registered"
	List       = "list"
)

// Page is the data every page is executed with. Pages read only the fields
// they need.
type Page struct {
	// User is the login shown in the header, empty when logged out.
	User string

	Content     string
	RedirectURL string
	Name        string
	ShortURL    string
	Entries     []models.Entry
}

type Templates struct {
	pages map[string]*template.Template
}

// New parses the embedded pages.
func New() (*Templates, error) {
	base, err := template.ParseFS(files, "html/base.html")
	if err != nil {
		return nil, err
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, name := range []string{Message, Login, Index, Registered, List} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if t.pages[name], err = clone.ParseFS(files, "html/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	return t, nil
}

// Render writes the named page to w.
func (t *Templates) Render(w io.Writer, name string, p Page) error {
	page, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	return page.ExecuteTemplate(w, "base", p)
}
