package folio

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// requireAdmin gates an admin action. Denial is silent: the caller is sent
// to the home page with no error surfaced.
func (a *App) requireAdmin(c echo.Context) bool {
	return a.authorize(c).Admin()
}

func redirectHome(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleAdmin(c echo.Context) error {
	if !a.requireAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

// handleAdminLogin is the password challenge that elevates a session,
// independent of any OAuth identity.
func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := elevateSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func (a *App) handleProjectNew(c echo.Context) error {
	if !a.requireAdmin(c) {
		return redirectHome(c)
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Title+is+required.")
	}
	status := c.FormValue("status")
	switch status {
	case StatusInProgress, StatusCompleted, StatusArchived:
	default:
		status = StatusInProgress
	}
	var authorID int64
	if u := CurrentUser(c); u != nil {
		authorID = u.GitHubID
	}
	_, err := a.Store.CreateProject(Project{
		Title:       title,
		Description: c.FormValue("description"),
		ImageURL:    c.FormValue("image_url"),
		ProjectURL:  c.FormValue("project_url"),
		GitHubURL:   c.FormValue("github_url"),
		AuthorID:    authorID,
		Featured:    c.FormValue("featured") != "",
		Status:      status,
		Tags:        FilterEmpty(strings.Split(c.FormValue("tags"), ",")),
	})
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin?msg=saved")
}

func (a *App) handleBlogNew(c echo.Context) error {
	if !a.requireAdmin(c) {
		return redirectHome(c)
	}
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Slug+is+required.+Add+a+title+or+slug.")
	}
	var authorID int64
	if u := CurrentUser(c); u != nil {
		authorID = u.GitHubID
	}
	_, err := a.Store.CreateBlogPost(BlogPost{
		Title:       title,
		Description: c.FormValue("description"),
		ImageURL:    c.FormValue("image_url"),
		Slug:        slug,
		Published:   c.FormValue("published") != "",
		AuthorID:    authorID,
		Tags:        FilterEmpty(strings.Split(c.FormValue("tags"), ",")),
	})
	if err == ErrDuplicateSlug {
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Slug+already+in+use.")
	}
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin?msg=saved")
}

func (a *App) handleContactDelete(c echo.Context) error {
	if !a.requireAdmin(c) {
		return redirectHome(c)
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	if err := a.Store.SoftDeleteContact(id); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *App) handleContactToggle(c echo.Context) error {
	if !a.requireAdmin(c) {
		return redirectHome(c)
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	if err := a.Store.ToggleContactResponded(id); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	contacts, err := a.Store.ListActiveContacts()
	if err != nil {
		return err
	}
	posts, err := a.Store.ListBlogPosts(false)
	if err != nil {
		return err
	}
	projects, err := a.Store.ListProjects(ProjectFilter{Newest: true})
	if err != nil {
		return err
	}
	images, err := a.Store.ListImages()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(AdminData{
		Contacts:  contacts,
		Posts:     posts,
		Projects:  projects,
		Images:    images,
		Message:   msg,
		CSRFToken: CsrfToken(c),
	}))
}
