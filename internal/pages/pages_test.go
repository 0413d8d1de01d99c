package pages

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/models"
)

type call struct {
	method string
	path   string
	token  string
}

type fakeFetcher struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]any
}

func (f *fakeFetcher) FetchJSON(_ context.Context, token, method, path string, _, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, path: path, token: token})
	resp, ok := f.responses[path]
	if !ok {
		return errors.New("connection refused")
	}
	if ptr, ok := out.(*any); ok {
		*ptr = resp
	}
	return nil
}

func newRequest(params map[string]string) Request {
	return Request{Params: params, Flash: flash.NewQueue(nil), AccessToken: "tok"}
}

func TestResourcePageLoads(t *testing.T) {
	fetch := &fakeFetcher{responses: map[string]any{"/api/report/42": map[string]any{"report_id": 42}}}
	c := NewCatalog(fetch)

	req := newRequest(map[string]string{"report_id": "42"})
	view, err := c.Page(ReportView).Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "resource", view.Template)

	data := view.Data.(ResourceData)
	assert.False(t, data.Empty)
	assert.Contains(t, data.Body, `"report_id": 42`)
	assert.Empty(t, req.Flash.Messages())
	assert.Equal(t, []call{{method: http.MethodGet, path: "/api/report/42", token: "tok"}}, fetch.calls)
}

func TestResourcePageFailureFlashes(t *testing.T) {
	c := NewCatalog(&fakeFetcher{})
	req := newRequest(nil)
	view, err := c.Page(Servers).Render(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, view.Data.(ResourceData).Empty)

	msgs := req.Flash.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, flash.LevelError, msgs[0].Level)
	assert.True(t, msgs[0].Closable)
}

func TestResourcePageRejectsBadParams(t *testing.T) {
	fetch := &fakeFetcher{}
	c := NewCatalog(fetch)
	for name, params := range map[string]map[string]string{
		BanView:  {"ban_id": "abc"},
		MatchLog: {"match_id": "-1"},
		Profile:  {"steam_id": "12"},
	} {
		req := newRequest(params)
		view, err := c.Page(name).Render(context.Background(), req)
		require.NoError(t, err, name)
		assert.True(t, view.Data.(ResourceData).Empty, name)
		assert.Len(t, req.Flash.Messages(), 1, name)
	}
	assert.Empty(t, fetch.calls)
}

func TestProfileAndWikiPaths(t *testing.T) {
	fetch := &fakeFetcher{responses: map[string]any{
		"/api/profile?query=76561198031215761": map[string]any{},
		"/api/wiki/slug/rules/voice":           map[string]any{},
	}}
	c := NewCatalog(fetch)
	_, err := c.Page(Profile).Render(context.Background(), newRequest(map[string]string{"steam_id": "76561198031215761"}))
	require.NoError(t, err)
	_, err = c.Page(WikiPage).Render(context.Background(), newRequest(map[string]string{"slug": "rules/voice"}))
	require.NoError(t, err)
	require.Len(t, fetch.calls, 2)
}

func TestWikiRejectsDotSegments(t *testing.T) {
	fetch := &fakeFetcher{}
	c := NewCatalog(fetch)
	for _, slug := range []string{"../../admin/people", "rules/./voice", "rules//voice", ".."} {
		req := newRequest(map[string]string{"slug": slug})
		view, err := c.Page(WikiPage).Render(context.Background(), req)
		require.NoError(t, err, slug)
		assert.True(t, view.Data.(ResourceData).Empty, slug)
		assert.Len(t, req.Flash.Messages(), 1, slug)
	}
	assert.Empty(t, fetch.calls)
}

func TestWikiSlugIsEscaped(t *testing.T) {
	fetch := &fakeFetcher{responses: map[string]any{
		"/api/wiki/slug/admin%3Fx=1/a%25b": map[string]any{},
	}}
	c := NewCatalog(fetch)
	view, err := c.Page(WikiPage).Render(context.Background(), newRequest(map[string]string{"slug": "admin?x=1/a%b"}))
	require.NoError(t, err)
	assert.False(t, view.Data.(ResourceData).Empty)
	require.Len(t, fetch.calls, 1)
	assert.Equal(t, "/api/wiki/slug/admin%3Fx=1/a%25b", fetch.calls[0].path)
}

func TestHomeFetchesConcurrently(t *testing.T) {
	fetch := &fakeFetcher{responses: map[string]any{"/api/servers/state": []any{"srv"}}}
	c := NewCatalog(fetch)
	req := newRequest(nil)

	view, err := c.Page(Home).Render(context.Background(), req)
	require.NoError(t, err)
	data := view.Data.(HomeData)
	assert.Empty(t, data.News)
	assert.Contains(t, data.Servers, "srv")
	assert.Len(t, fetch.calls, 2)
	assert.Len(t, req.Flash.Messages(), 1)
}

func TestUnknownPageIsNotFound(t *testing.T) {
	view, err := NewCatalog(&fakeFetcher{}).Page("nope").Render(context.Background(), newRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "not_found", view.Template)
}

func TestLoginPage(t *testing.T) {
	c := NewCatalog(&fakeFetcher{})
	req := newRequest(nil)
	req.LoginURL = "https://steamcommunity.com/openid/login"
	view, err := c.Page(Login).Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "login", view.Template)

	req.Viewer = models.UserProfile{SteamID: 76561198031215761, PermissionLevel: models.PermissionUser, Name: "frank"}
	view, err = c.Page(Login).Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "static", view.Template)
}

func TestRendererLayout(t *testing.T) {
	r, err := NewRenderer("gbans")
	require.NoError(t, err)

	content, err := r.Content(PermissionDeniedView())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Page(&buf, Layout{
		Title:   "Permission Denied",
		Viewer:  models.Guest,
		Content: content,
		Flashes: []flash.Message{{ID: "abc", Level: flash.LevelError, Heading: "Error", Message: "<b>boom</b>", Closable: true}},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `id="top-bar"`)
	assert.Contains(t, html, `id="footer"`)
	assert.Contains(t, html, "Insufficient permission")
	assert.Contains(t, html, "/flash/abc/dismiss")
	assert.Contains(t, html, "&lt;b&gt;boom&lt;/b&gt;")
	assert.NotContains(t, html, "/admin/people")
}

func TestRendererUnknownTemplate(t *testing.T) {
	r, err := NewRenderer("gbans")
	require.NoError(t, err)
	_, err = r.Content(View{Template: "missing"})
	assert.Error(t, err)
}
