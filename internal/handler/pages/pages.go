package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/solace/backend/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Emotions offered by the share form and the community filter.
var Emotions = []string{"happy", "sad", "angry", "anxious", "neutral"}

// Handler renders the bundled front-end pages.
type Handler struct {
	pages  map[string]*template.Template
	static http.Handler
}

type pageData struct {
	Title    string
	Active   string
	Emotions []string
}

// New parses every page against the shared layout.
func New() (*Handler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "share", "community"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	return &Handler{
		pages:  pages,
		static: http.StripPrefix("/static/", http.FileServer(http.FS(sub))),
	}, nil
}

// RegisterRoutes 注册页面与静态资源路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.page("index", "Solace"))
	r.Get("/share", h.page("share", "Share how you feel"))
	r.Get("/community", h.page("community", "Community"))
	r.Handle("/static/*", h.static)
}

func (h *Handler) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			Title:    title,
			Active:   name,
			Emotions: Emotions,
		}

		// 先渲染到缓冲区，模板出错时还能返回 500
		var buf bytes.Buffer
		if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("failed to render page")
			utils.RespondError(w, http.StatusInternalServerError, "failed to render page")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
