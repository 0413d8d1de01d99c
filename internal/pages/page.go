// Package pages holds the page components rendered inside the site layout.
package pages

import (
	"context"
	"net/url"

	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/models"
)

// Fetcher loads JSON resources from the backend.
type Fetcher interface {
	FetchJSON(ctx context.Context, accessToken, method, path string, body, out any) error
}

// Request is what a page sees of the incoming navigation.
type Request struct {
	Path        string
	Params      map[string]string
	Query       url.Values
	Viewer      models.UserProfile
	AccessToken string
	LoginURL    string
	Flash       *flash.Queue
}

// Param returns a named path parameter.
func (r Request) Param(name string) string {
	return r.Params[name]
}

// View names the content template to execute and its data.
type View struct {
	Title    string
	Template string
	Data     any
}

// Page renders one route.
type Page interface {
	Render(ctx context.Context, req Request) (View, error)
}

// PageFunc adapts a function to Page.
type PageFunc func(ctx context.Context, req Request) (View, error)

// Render calls f(ctx, req).
func (f PageFunc) Render(ctx context.Context, req Request) (View, error) {
	return f(ctx, req)
}
