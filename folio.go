// Package folio is a personal portfolio site engine built with Go, Echo, and
// templ. It provides a home page, blog, project showcase, contact form,
// GitHub sign-in, and an admin panel over a single SQLite database.
//
// Users provide their own templ templates via the ViewFuncs struct, and folio
// handles the handler logic, session/auth gating, middleware, and database
// operations.
package folio

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Viewer packages the request identity for templates. IsAdmin is true for
// identity-based admins and password-elevated sessions alike.
type Viewer struct {
	User    *User
	IsAdmin bool
}

// AdminData is everything the admin dashboard template renders.
type AdminData struct {
	Contacts  []ContactRequest
	Posts     []BlogPost
	Projects  []Project
	Images    []Image
	Message   string
	CSRFToken string
}

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Home           func(v Viewer, posts []BlogPost, projects []Project) templ.Component
	BlogList       func(v Viewer, posts []BlogPost, tags []string) templ.Component
	BlogDetail     func(v Viewer, post BlogPost, insights *GitHubStats) templ.Component
	ProjectList    func(v Viewer, projects []Project) templ.Component
	Login          func(oauthURL, reason string) templ.Component
	ErrorPage      func(reason string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(d AdminData) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central folio application. It wires together the store, cache,
// auth gate, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *HomeCache
	Views  ViewFuncs
	GitHub *GitHub

	loginLimiter   *RateLimiter
	contactLimiter *RateLimiter
	customRoutes   []func(*App)
	staticDir      string
}

// New creates a folio App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Bootstrap initializes the store, cache, limiters, GitHub client,
// middleware, and routes without starting the listener. Start calls it;
// tests call it directly and drive a.Echo with httptest requests.
func (a *App) Bootstrap() error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewHomeCache(a.Store, a.Config.HomeCacheTTL)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.contactLimiter = NewRateLimiter(5, time.Minute)

	if a.GitHub == nil {
		a.GitHub = NewGitHub(a.Config.GitHubClientID, a.Config.GitHubClientSecret)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start bootstraps the app and runs the server.
func (a *App) Start() error {
	if err := a.Bootstrap(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/blogposts", a.handleBlogList)
	e.GET("/blog/:slug", a.handleBlogPost)
	e.GET("/projects", a.handleProjects)
	e.POST("/api/contact", a.handleContactSubmit)

	// OAuth handshake
	e.GET("/login", a.handleLogin)
	e.GET("/logout", a.handleLogout)
	e.GET("/redirect", a.handleOAuthRedirect)
	e.GET("/error", a.handleError)

	// Admin panel
	e.GET("/admin", a.handleAdmin)
	e.POST("/admin/login", a.handleAdminLogin)
	e.POST("/api/projects/new", a.handleProjectNew)
	e.POST("/api/blogs/new", a.handleBlogNew)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/contact/delete/:id", a.handleContactDelete)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/contact/toggle/:id", a.handleContactToggle)
	e.GET("/admin/download/:filename", a.handleBackupDownload)
	e.POST("/admin/upload", a.handleBackupUpload)
	e.POST("/admin/images/upload", a.handleImageUpload)
	e.DELETE("/admin/images/:filename", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if
// empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
