package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/gbans-web/internal/flash"
	"github.com/hongminglow/gbans-web/internal/models"
)

// Page names shared with the route table.
const (
	Home          = "home"
	Servers       = "servers"
	Bans          = "bans"
	Appeal        = "appeal"
	Wiki          = "wiki"
	WikiPage      = "wiki_page"
	BanView       = "ban"
	ReportView    = "report_view"
	Profile       = "profile"
	GlobalStats   = "global_stats"
	Login         = "login"
	NotFound      = "not_found"
	ReportCreate  = "report_create"
	Settings      = "settings"
	AdminFilters  = "admin_filters"
	AdminNews     = "admin_news"
	AdminBan      = "admin_ban"
	AdminReports  = "admin_reports"
	AdminAppeals  = "admin_appeals"
	AdminChat     = "admin_chat"
	MatchLog      = "match_log"
	MatchLogs     = "logs"
	Pug           = "pug"
	Quickplay     = "quickplay"
	AdminImport   = "admin_import"
	AdminPeople   = "admin_people"
	AdminServers  = "admin_servers"
	AdminLogs     = "admin_server_logs"
	defaultWikiID = "home"
)

// Catalog owns every page of the site.
type Catalog struct {
	fetch Fetcher
	pages map[string]Page
}

// NewCatalog builds the site pages on top of fetch.
func NewCatalog(fetch Fetcher) *Catalog {
	c := &Catalog{fetch: fetch}
	c.pages = map[string]Page{
		Home:         PageFunc(c.home),
		Login:        PageFunc(loginPage),
		NotFound:     PageFunc(notFoundPage),
		Settings:     PageFunc(settingsPage),
		ReportCreate: PageFunc(reportCreatePage),

		Appeal:      static("Appeal", "Appeal a ban", "Log in and open your ban page to start an appeal."),
		AdminBan:    static("Ban Player", "Ban a player", "Issue a steam, network, ASN or group ban."),
		AdminChat:   static("Chat Logs", "Chat history", "Search chat messages by player or server."),
		AdminImport: static("Import", "Import bans", "Import bans from an external ban list."),
		AdminLogs:   static("Server Logs", "Server logs", "Search raw log lines by server and time range."),
		Pug:         static("PUG", "Pick-up games", "No lobbies are open."),
		Quickplay:   static("Quickplay", "Quickplay", "No quickplay lobbies are open."),

		Servers:      c.resource("Servers", http.MethodGet, fixed("/api/servers/state"), nil),
		Bans:         c.resource("Bans", http.MethodPost, fixed("/api/bans/steam"), defaultQuery),
		Wiki:         c.resource("Wiki", http.MethodGet, fixed("/api/wiki/slug/"+defaultWikiID), nil),
		WikiPage:     c.resource("Wiki", http.MethodGet, wikiPath, nil),
		BanView:      c.resource("Ban", http.MethodGet, idPath("/api/bans/steam/", "ban_id"), nil),
		ReportView:   c.resource("Report", http.MethodGet, idPath("/api/report/", "report_id"), nil),
		Profile:      c.resource("Profile", http.MethodGet, profilePath, nil),
		GlobalStats:  c.resource("Global Stats", http.MethodGet, fixed("/api/stats"), nil),
		AdminFilters: c.resource("Filtered Words", http.MethodGet, fixed("/api/filters"), nil),
		AdminNews:    c.resource("News", http.MethodPost, fixed("/api/news_all"), nil),
		AdminReports: c.resource("Reports", http.MethodPost, fixed("/api/reports"), defaultQuery),
		AdminAppeals: c.resource("Appeals", http.MethodPost, fixed("/api/appeals"), defaultQuery),
		MatchLog:     c.resource("Match Log", http.MethodGet, idPath("/api/log/", "match_id"), nil),
		MatchLogs:    c.resource("Match Logs", http.MethodPost, fixed("/api/logs"), defaultQuery),
		AdminPeople:  c.resource("People", http.MethodGet, fixed("/api/players"), nil),
		AdminServers: c.resource("Servers", http.MethodGet, fixed("/api/servers"), nil),
	}
	return c
}

// Page returns the named page, or the not-found page for unknown names.
func (c *Catalog) Page(name string) Page {
	if p, ok := c.pages[name]; ok {
		return p
	}
	return PageFunc(notFoundPage)
}

// StaticData is the content of an informational page.
type StaticData struct {
	Heading string
	Text    string
}

func static(title, heading, text string) Page {
	return PageFunc(func(context.Context, Request) (View, error) {
		return View{Title: title, Template: "static", Data: StaticData{Heading: heading, Text: text}}, nil
	})
}

func notFoundPage(context.Context, Request) (View, error) {
	return NotFoundView(), nil
}

// LoginData feeds the login prompt.
type LoginData struct {
	Message  string
	LoginURL string
}

func loginPage(_ context.Context, req Request) (View, error) {
	if !req.Viewer.IsGuest() {
		return View{Title: "Login", Template: "static", Data: StaticData{
			Heading: "Logged in",
			Text:    "You are logged in as " + req.Viewer.Name + ".",
		}}, nil
	}
	return LoginPromptView(req.LoginURL, "Log in with your steam account to continue."), nil
}

// ViewerData shows the current viewer.
type ViewerData struct {
	Viewer     models.UserProfile
	Permission string
}

func settingsPage(_ context.Context, req Request) (View, error) {
	return View{Title: "Settings", Template: "viewer", Data: ViewerData{
		Viewer:     req.Viewer,
		Permission: req.Viewer.PermissionLevel.String(),
	}}, nil
}

func reportCreatePage(_ context.Context, req Request) (View, error) {
	return View{Title: "Create Report", Template: "report_create", Data: ViewerData{
		Viewer:     req.Viewer,
		Permission: req.Viewer.PermissionLevel.String(),
	}}, nil
}

// ResourceData is a backend resource prepared for display.
type ResourceData struct {
	Heading string
	Body    string
	Empty   bool
}

type pathFunc func(Request) (string, error)

type listQuery struct {
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	OrderBy string `json:"order_by"`
	Desc    bool   `json:"desc"`
}

var defaultQuery = listQuery{Limit: 50, OrderBy: "created_on", Desc: true}

func fixed(path string) pathFunc {
	return func(Request) (string, error) { return path, nil }
}

func idPath(prefix, param string) pathFunc {
	return func(req Request) (string, error) {
		id, err := strconv.ParseInt(req.Param(param), 10, 64)
		if err != nil || id <= 0 {
			return "", fmt.Errorf("invalid %s %q", param, req.Param(param))
		}
		return prefix + strconv.FormatInt(id, 10), nil
	}
}

func wikiPath(req Request) (string, error) {
	slug := req.Param("slug")
	if slug == "" {
		slug = defaultWikiID
	}
	segments := strings.Split(slug, "/")
	for i, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("invalid wiki slug %q", slug)
		}
		segments[i] = url.PathEscape(seg)
	}
	return "/api/wiki/slug/" + strings.Join(segments, "/"), nil
}

func profilePath(req Request) (string, error) {
	raw, err := strconv.ParseUint(req.Param("steam_id"), 10, 64)
	if err != nil || !models.SteamID(raw).Valid() {
		return "", fmt.Errorf("invalid steam_id %q", req.Param("steam_id"))
	}
	return "/api/profile?query=" + models.SteamID(raw).String(), nil
}

type resourcePage struct {
	fetch  Fetcher
	title  string
	method string
	path   pathFunc
	body   any
}

func (c *Catalog) resource(title, method string, path pathFunc, body any) Page {
	return &resourcePage{fetch: c.fetch, title: title, method: method, path: path, body: body}
}

func (p *resourcePage) Render(ctx context.Context, req Request) (View, error) {
	view := View{Title: p.title, Template: "resource"}
	payload, err := p.load(ctx, req)
	if err != nil {
		req.Flash.Send(flash.LevelError, err.Error(), flash.WithHeading("Error"))
		view.Data = ResourceData{Heading: p.title, Empty: true}
		return view, nil
	}
	view.Data = ResourceData{Heading: p.title, Body: payload}
	return view, nil
}

func (p *resourcePage) load(ctx context.Context, req Request) (string, error) {
	path, err := p.path(req)
	if err != nil {
		return "", err
	}
	var out any
	if err := p.fetch.FetchJSON(ctx, req.AccessToken, p.method, path, p.body, &out); err != nil {
		return "", fmt.Errorf("failed to load %s", p.title)
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to display %s", p.title)
	}
	return string(pretty), nil
}

// HomeData is the landing page content.
type HomeData struct {
	News    string
	Servers string
}

func (c *Catalog) home(ctx context.Context, req Request) (View, error) {
	news := &resourcePage{fetch: c.fetch, title: "news", method: http.MethodPost, path: fixed("/api/news_latest")}
	servers := &resourcePage{fetch: c.fetch, title: "servers", method: http.MethodGet, path: fixed("/api/servers/state")}

	var data HomeData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := news.load(gctx, req)
		if err != nil {
			req.Flash.Send(flash.LevelError, err.Error(), flash.WithHeading("Error"))
			return nil
		}
		data.News = body
		return nil
	})
	g.Go(func() error {
		body, err := servers.load(gctx, req)
		if err != nil {
			req.Flash.Send(flash.LevelError, err.Error(), flash.WithHeading("Error"))
			return nil
		}
		data.Servers = body
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}
	return View{Title: "Home", Template: "home", Data: data}, nil
}
