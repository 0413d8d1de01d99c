package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/http/respond"
)

// FlashHandler lets the viewer dismiss notifications.
type FlashHandler struct{}

// NewFlashHandler constructs the handler.
func NewFlashHandler() *FlashHandler {
	return &FlashHandler{}
}

// Register adds the dismiss action to r.
func (h *FlashHandler) Register(r chi.Router) {
	r.Post("/flash/{id}/dismiss", h.handleDismiss)
}

func (h *FlashHandler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	flash.FromContext(r.Context()).Dismiss(chi.URLParam(r, "id"))
	respond.Redirect(w, r, sameSiteReferer(r))
}

// sameSiteReferer returns the referring path when it came from this host.
func sameSiteReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host {
		return "/"
	}
	return ref.RequestURI()
}
