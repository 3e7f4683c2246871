package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/money"
	"go.uber.org/zap"
)

//go:embed templates
var templatesFS embed.FS

var pages = []string{"home", "cart", "checkout", "confirmation", "orders", "error"}

type pageData struct {
	Title        string
	Cart         *domain.Cart
	DropdownOpen bool
	Identity     domain.Identity
	Flash        string
	StripeKey    string
	Content      any
}

type renderer struct {
	pages map[string]*template.Template
	log   *zap.Logger
}

func newRenderer(log *zap.Logger) (*renderer, error) {
	funcs := template.FuncMap{
		"local": money.FormatLocal,
		"pay":   money.FormatPayment,
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pages)), log: log}
	for _, p := range pages {
		t, err := template.New(p).Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/partials/*.html",
			"templates/"+p+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", p, err)
		}
		r.pages[p] = t
	}
	return r, nil
}

// page renders a full page. The output is buffered so a template error never
// produces a half-written response; it reports whether the page was written.
func (r *renderer) page(w http.ResponseWriter, status int, name string, data pageData) bool {
	return r.execute(w, status, name, "layout", data)
}

// fragment renders a named partial, e.g. the cart dropdown.
func (r *renderer) fragment(w http.ResponseWriter, name string, data pageData) bool {
	return r.execute(w, http.StatusOK, "cart", name, data)
}

func (r *renderer) execute(w http.ResponseWriter, status int, page, tmpl string, data pageData) bool {
	t, ok := r.pages[page]
	if !ok {
		r.log.Error("unknown page", zap.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, tmpl, data); err != nil {
		r.log.Error("template execution failed", zap.String("page", page), zap.String("template", tmpl), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.log.Warn("failed to write response", zap.Error(err))
		return false
	}
	return true
}
