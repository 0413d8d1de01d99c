package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/http/respond"
	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/models/dto"
	"github.com/hongminglow/gbans-web/internal/session"
)

// Bootstrapper resolves the viewer from the tokens bound to a session.
type Bootstrapper interface {
	Init(ctx context.Context, sc *session.Context) session.Result
}

// Logouter revokes a backend session.
type Logouter interface {
	Logout(ctx context.Context, accessToken string) error
}

// AuthHandler owns the login completion and logout actions.
type AuthHandler struct {
	sessions Bootstrapper
	backend  Logouter
	logger   *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(sessions Bootstrapper, backend Logouter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, backend: backend, logger: logger}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Get("/login/success", h.handleLoginSuccess)
	r.Get("/logout", h.handleLogout)
}

// RegisterAPI attaches the JSON session endpoint.
func (h *AuthHandler) RegisterAPI(r chi.Router) {
	r.Get("/api/session", h.handleSession)
}

// handleLoginSuccess is where the backend sends the browser after the
// OpenID callback, with fresh credentials in the query.
func (h *AuthHandler) handleLoginSuccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	sc := session.FromContext(ctx)
	messages := flash.FromContext(ctx)

	access, refresh := q.Get("token"), q.Get("refresh")
	if access == "" || refresh == "" {
		messages.Send(flash.LevelError, "Login failed: missing credentials", flash.WithHeading("Error"))
		respond.Redirect(w, r, "/login")
		return
	}

	sc.SetToken(access)
	sc.SetRefreshToken(refresh)
	res := h.sessions.Init(ctx, sc)
	if res.Profile.IsGuest() {
		h.logger.WarnContext(ctx, "login completion failed", "outcome", res.Outcome, "error", res.Err)
		messages.Send(flash.LevelError, "Login failed, please try again", flash.WithHeading("Error"))
		respond.Redirect(w, r, "/login")
		return
	}

	h.logger.InfoContext(ctx, "user logged in", "steam_id", res.Profile.SteamID.String())
	messages.Send(flash.LevelSuccess, "Welcome back "+res.Profile.Name, flash.WithHeading("Logged in"))
	respond.Redirect(w, r, q.Get("next_url"))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc := session.FromContext(ctx)

	if access := sc.GetToken(); access != "" {
		if err := h.backend.Logout(ctx, access); err != nil {
			h.logger.WarnContext(ctx, "backend logout failed", "error", err)
		}
	}
	sc.ClearTokens()
	sc.SetCurrentUser(models.Guest)

	flash.FromContext(ctx).Send(flash.LevelSuccess, "You have been logged out", flash.WithHeading("Logged out"))
	respond.Redirect(w, r, "/")
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	user := session.FromContext(r.Context()).CurrentUser()
	respond.JSON(w, http.StatusOK, "ok", dto.SessionResponse{
		User:          user,
		Authenticated: !user.IsGuest(),
		Permission:    user.PermissionLevel.String(),
	})
}
