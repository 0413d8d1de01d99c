package router

import (
	"github.com/hongminglow/gbans-web/internal/guard"
	"github.com/hongminglow/gbans-web/internal/models"
	"github.com/hongminglow/gbans-web/internal/pages"
)

// PageSet supplies pages by name.
type PageSet interface {
	Page(name string) pages.Page
}

type entry struct {
	name string
	path string
	req  *guard.Requirement
}

var (
	user      = guard.Require(models.PermissionUser)
	editor    = guard.Require(models.PermissionEditor)
	moderator = guard.Require(models.PermissionModerator)
	admin     = guard.Require(models.PermissionAdmin)
)

var siteRoutes = []entry{
	{pages.Home, "/", nil},
	{pages.Servers, "/servers", nil},
	{pages.Bans, "/bans", nil},
	{pages.Appeal, "/appeal", nil},
	{pages.Wiki, "/wiki", nil},
	{pages.WikiPage, "/wiki/*slug", nil},
	{pages.BanView, "/ban/:ban_id", nil},
	{pages.ReportView, "/report/:report_id", nil},
	{pages.Profile, "/profile/:steam_id", nil},
	{pages.GlobalStats, "/global_stats", nil},
	{pages.Login, "/login", nil},
	{pages.NotFound, "/404", nil},

	{pages.ReportCreate, "/report", guard.RequireUnbanned(models.PermissionUser)},
	{pages.Settings, "/settings", user},

	{pages.AdminFilters, "/admin/filters", editor},
	{pages.AdminNews, "/admin/news", editor},

	{pages.AdminBan, "/admin/ban", moderator},
	{pages.AdminReports, "/admin/reports", moderator},
	{pages.AdminAppeals, "/admin/appeals", moderator},
	{pages.AdminChat, "/admin/chat", moderator},

	{pages.MatchLog, "/log/:match_id", admin},
	{pages.MatchLogs, "/logs", admin},
	{pages.Pug, "/pug", admin},
	{pages.Quickplay, "/quickplay", admin},
	{pages.AdminImport, "/admin/import", admin},
	{pages.AdminPeople, "/admin/people", admin},
	{pages.AdminServers, "/admin/servers", admin},
	{pages.AdminLogs, "/admin/server_logs", admin},
}

// DefaultRoutes returns the site route table.
func DefaultRoutes(set PageSet) (*Table, error) {
	descriptors := make([]Descriptor, 0, len(siteRoutes))
	for _, e := range siteRoutes {
		descriptors = append(descriptors, Descriptor{Name: e.name, Path: e.path, Requirement: e.req, Page: set.Page(e.name)})
	}
	notFound := Descriptor{Name: pages.NotFound, Path: "/404", Page: set.Page(pages.NotFound)}
	return NewTable(notFound, descriptors...)
}
