package middleware

import (
	"context"
	"net/http"

	"github.com/hongminglow/gbans-web/internal/session"
	"github.com/hongminglow/gbans-web/internal/tokens"
)

// Bootstrapper resolves the viewer of a fresh session.
type Bootstrapper interface {
	Init(ctx context.Context, sc *session.Context) session.Result
}

// Session binds the request's token store, resolves the viewer and carries
// the session on the request context. observe may be nil.
func Session(provider tokens.Provider, boot Bootstrapper, observe func(session.Result)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := session.New(provider.ForRequest(w, r))
			res := boot.Init(r.Context(), sc)
			if observe != nil {
				observe(res)
			}
			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sc)))
		})
	}
}
