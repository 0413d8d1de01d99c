package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoginPromptView asks a guest to log in.
func LoginPromptView(loginURL, message string) View {
	return View{Title: "Login", Template: "login", Data: LoginData{Message: message, LoginURL: loginURL}}
}

// PermissionDeniedView tells a logged-in viewer their role is insufficient.
func PermissionDeniedView() View {
	return View{Title: "Permission Denied", Template: "denied"}
}

// NotFoundView is shown for unknown paths.
func NotFoundView() View {
	return View{Title: "Not Found", Template: "not_found"}
}

// RenderErrorView replaces the content of a page that failed to render.
func RenderErrorView() View {
	return View{Title: "Error", Template: "render_error"}
}

// Layout is the frame around every page.
type Layout struct {
	SiteName string
	Title    string
	Path     string
	Viewer   models.UserProfile
	LoginURL string
	Flashes  []flash.Message
	Content  template.HTML
	Year     int
}

func (l Layout) LoggedIn() bool    { return !l.Viewer.IsGuest() }
func (l Layout) IsEditor() bool    { return l.Viewer.PermissionLevel.AtLeast(models.PermissionEditor) }
func (l Layout) IsModerator() bool { return l.Viewer.PermissionLevel.AtLeast(models.PermissionModerator) }
func (l Layout) IsAdmin() bool     { return l.Viewer.PermissionLevel.AtLeast(models.PermissionAdmin) }

// Renderer executes page and layout templates.
type Renderer struct {
	tmpl     *template.Template
	siteName string
	now      func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer(siteName string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, siteName: siteName, now: time.Now}, nil
}

// Content executes the template of view into an HTML fragment.
func (r *Renderer) Content(view View) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, view.Template, view.Data); err != nil {
		return "", fmt.Errorf("render %s: %w", view.Template, err)
	}
	return template.HTML(buf.String()), nil
}

// Page writes the full document for layout to w.
func (r *Renderer) Page(w io.Writer, layout Layout) error {
	layout.SiteName = r.siteName
	layout.Year = r.now().Year()
	return r.tmpl.ExecuteTemplate(w, "layout", layout)
}
