package backup

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/charmbracelet/log"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS
)

const (
	pageIndex  = "index.html"
	pageUpload = "upload.html"
	pageResult = "result.html"
	pageList   = "list.html"
)

// Pages renders the backup pages inside the shared layout.
type Pages struct {
	templates map[string]*template.Template
}

func NewPages() (*Pages, error) {
	pages := &Pages{templates: make(map[string]*template.Template)}
	for _, name := range []string{pageIndex, pageUpload, pageResult, pageList} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("backup: parse template %s: %w", name, err)
		}
		pages.templates[name] = tmpl
	}
	return pages, nil
}

// Assets returns the stylesheet and other static files served under /static/.
func Assets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := p.templates[name]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error("render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
