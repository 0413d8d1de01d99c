package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/guard"
	"github.com/hongminglow/gbans-web/internal/http/respond"
	"github.com/hongminglow/gbans-web/internal/metrics"
	"github.com/hongminglow/gbans-web/internal/pages"
	"github.com/hongminglow/gbans-web/internal/router"
	"github.com/hongminglow/gbans-web/internal/session"
)

// LoginLinker builds the login URL for a return path.
type LoginLinker interface {
	LoginURL(returnPath string) string
}

const loginPrompt = "To access this page, please login using your steam account below."

// fallbackContent is shown when even the error notice cannot be rendered.
const fallbackContent template.HTML = `<h1>Something went wrong</h1>`

// PageHandler resolves a navigation, applies the permission guard and
// renders the page inside the layout.
type PageHandler struct {
	routes   *router.Table
	renderer *pages.Renderer
	logins   LoginLinker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPageHandler constructs the handler.
func NewPageHandler(routes *router.Table, renderer *pages.Renderer, logins LoginLinker, m *metrics.Metrics, logger *slog.Logger) *PageHandler {
	return &PageHandler{routes: routes, renderer: renderer, logins: logins, metrics: m, logger: logger}
}

// Register makes the handler the catch-all for page navigations.
func (h *PageHandler) Register(r chi.Router) {
	r.Get("/*", h.ServeHTTP)
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	sc := session.FromContext(ctx)
	messages := flash.FromContext(ctx)
	viewer := sc.CurrentUser()
	loginURL := h.logins.LoginURL(r.URL.RequestURI())

	match := h.routes.Resolve(r.URL.Path)
	route := match.Descriptor.Name

	decision := guard.Evaluate(match.Descriptor.Requirement, viewer)
	h.metrics.IncrementDecision(route, decision.String())

	status := http.StatusOK
	var (
		view    pages.View
		content template.HTML
		err     error
	)
	switch decision {
	case guard.RedirectBan:
		respond.Redirect(w, r, guard.BanPath(viewer))
		return
	case guard.DenyLogin:
		status = http.StatusUnauthorized
		view = pages.LoginPromptView(loginURL, loginPrompt)
		content, err = h.renderer.Content(view)
	case guard.DenyPermission:
		status = http.StatusForbidden
		view = pages.PermissionDeniedView()
		content, err = h.renderer.Content(view)
	default:
		if !match.Found {
			status = http.StatusNotFound
		}
		view, content, err = h.renderPage(ctx, match.Descriptor, pages.Request{
			Path:        r.URL.Path,
			Params:      match.Params,
			Query:       r.URL.Query(),
			Viewer:      viewer,
			AccessToken: sc.GetToken(),
			LoginURL:    loginURL,
			Flash:       messages,
		})
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "page render failed", "route", route, "path", r.URL.Path, "error", err)
		h.metrics.IncrementRenderFailure(route)
		status = http.StatusInternalServerError
		view = pages.RenderErrorView()
		if content, err = h.renderer.Content(view); err != nil {
			content = fallbackContent
		}
	}

	var buf bytes.Buffer
	layout := pages.Layout{
		Title:    view.Title,
		Path:     r.URL.Path,
		Viewer:   sc.CurrentUser(),
		LoginURL: loginURL,
		Flashes:  messages.Consume(),
		Content:  content,
	}
	if err := h.renderer.Page(&buf, layout); err != nil {
		h.logger.ErrorContext(ctx, "layout render failed", "route", route, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.DebugContext(ctx, "write page", "error", err)
	}
	h.metrics.ObserveRequest(route, status, time.Since(start))
}

// renderPage runs one page inside its own failure boundary. A panic or
// error is returned and never reaches the layout.
func (h *PageHandler) renderPage(ctx context.Context, d router.Descriptor, req pages.Request) (view pages.View, content template.HTML, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %s panicked: %v", d.Name, p)
		}
	}()
	if d.Page == nil {
		return pages.View{}, "", fmt.Errorf("page %s has no component", d.Name)
	}
	view, err = d.Page.Render(ctx, req)
	if err != nil {
		return pages.View{}, "", fmt.Errorf("page %s: %w", d.Name, err)
	}
	content, err = h.renderer.Content(view)
	return view, content, err
}
