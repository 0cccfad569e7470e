package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"projectx-be/internal/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	PageLanding   = "landing"
	PageAuth      = "auth"
	PageDashboard = "dashboard"
	PageChatbot   = "chatbot"
)

var pages = []string{PageLanding, PageAuth, PageDashboard, PageChatbot}

// PageData is everything a page template may read.
type PageData struct {
	Title    string
	AppName  string
	SignedIn bool
	User     *dto.UserProfileResponse
	Error    string
	Messages []dto.ChatMessageDTO
}

// Renderer holds one parsed template set per page, each sharing the layout.
type Renderer struct {
	appName   string
	templates map[string]*template.Template
}

func NewRenderer(appName string) (*Renderer, error) {
	r := &Renderer{
		appName:   appName,
		templates: make(map[string]*template.Template, len(pages)),
	}
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.templates[page] = t
	}
	return r, nil
}

// Render executes page into a buffer so a template error never leaves a
// half written response.
func (r *Renderer) Render(page string, data PageData) ([]byte, error) {
	t, ok := r.templates[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	data.AppName = r.appName

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return buf.Bytes(), nil
}
