package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return err
	}
	projects, err := a.Cache.Projects()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(a.viewer(c), posts, projects))
}

func (a *App) handleBlogList(c echo.Context) error {
	posts, err := a.Store.ListBlogPosts(true)
	if err != nil {
		return err
	}
	return Render(c, a.Views.BlogList(a.viewer(c), posts, CollectTags(posts)))
}

// handleBlogPost serves a post detail page, counting the visit. An unknown
// slug bounces back to the listing rather than 404ing.
func (a *App) handleBlogPost(c echo.Context) error {
	slug := c.Param("slug")
	if err := a.Store.IncrementViews(slug); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, "/blogposts")
		}
		return err
	}
	post, err := a.Store.GetBlogPost(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, "/blogposts")
		}
		return err
	}

	// The insights card is best-effort: a failed stats fetch degrades to a
	// page without it.
	v := a.viewer(c)
	var stats *GitHubStats
	if v.User != nil {
		if tok, ok := sessionToken(c); ok {
			stats, err = a.GitHub.FetchStats(c.Request().Context(), tok, v.User.Username)
			if err != nil {
				c.Logger().Warnf("github stats for %s: %v", v.User.Username, err)
				stats = nil
			}
		}
	}
	return Render(c, a.Views.BlogDetail(v, post, stats))
}

func (a *App) handleProjects(c echo.Context) error {
	f := ProjectFilter{
		Tag:    c.QueryParam("tag"),
		Newest: c.QueryParam("sort") != "oldest",
	}
	if status := c.QueryParam("status"); status != "" {
		f.Statuses = FilterEmpty(strings.Split(status, ","))
	}
	if c.QueryParam("featured") == "true" {
		t := true
		f.Featured = &t
	}
	projects, err := a.Store.ListProjects(f)
	if err != nil {
		return err
	}
	return Render(c, a.Views.ProjectList(a.viewer(c), projects))
}

// handleContactSubmit accepts the public contact form.
func (a *App) handleContactSubmit(c echo.Context) error {
	if !a.contactLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many messages. Try again later.")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	message := strings.TrimSpace(c.FormValue("message"))
	if name == "" || email == "" || message == "" {
		return c.String(http.StatusBadRequest, "Name, email, and message are required.")
	}
	if _, err := a.Store.CreateContact(name, email, message); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleLogin(c echo.Context) error {
	oauthURL, err := a.LoginLink(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Login(oauthURL, takeLoginError(c)))
}

func (a *App) handleError(c echo.Context) error {
	return Render(c, a.Views.ErrorPage(takeLoginError(c)))
}

// handleRobots generates robots.txt dynamically using the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /admin\n\nSitemap: " + a.Config.URL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Store.ListBlogPosts(true)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Store.ListBlogPosts(true)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
