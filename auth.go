package folio

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "folio_session"

// Session value keys.
const (
	sessKeyGitHubID   = "github_id"
	sessKeyToken      = "access_token"
	sessKeyElevated   = "elevated"
	sessKeyLoginError = "login_error"
	sessKeyOAuthState = "oauth_state"
)

const ctxUserKey = "folio_user"

// AuthSource says where a request's authority comes from. Identity-based
// admin rights and the password-elevated session are deliberately distinct
// capabilities; the elevation path works for any session, signed in or not,
// and doubles as the bootstrap mechanism before any user has is_admin set.
type AuthSource int

const (
	AuthNone AuthSource = iota
	AuthIdentity
	AuthElevated
)

// Authorization is the per-request resolution of identity and elevation.
type Authorization struct {
	Source AuthSource
	User   *User
}

// Admin reports whether the request may perform admin-only actions.
func (a Authorization) Admin() bool {
	switch a.Source {
	case AuthElevated:
		return true
	case AuthIdentity:
		return a.User != nil && a.User.IsAdmin
	}
	return false
}

// authSkipPaths are served without identity resolution: the OAuth handshake
// endpoints themselves plus static assets.
func authSkipPath(path string) bool {
	return path == "/login" || path == "/redirect" || path == "/error" ||
		strings.HasPrefix(path, "/public")
}

// identityMiddleware resolves the session's stored GitHub id into a User and
// attaches it to the request context. Requests without a resolvable identity
// proceed anonymously.
func (a *App) identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if authSkipPath(c.Request().URL.Path) {
			return next(c)
		}
		sess, err := session.Get(sessionName, c)
		if err == nil {
			if id, ok := sess.Values[sessKeyGitHubID].(int64); ok {
				if u, err := a.Store.GetUser(id); err == nil {
					c.Set(ctxUserKey, &u)
				}
			}
		}
		return next(c)
	}
}

// CurrentUser returns the signed-in user attached by the identity
// middleware, or nil for anonymous requests.
func CurrentUser(c echo.Context) *User {
	u, _ := c.Get(ctxUserKey).(*User)
	return u
}

// authorize resolves the request's Authorization. Elevation wins over
// identity so a password-elevated session keeps admin rights even when its
// identity lacks the admin flag.
func (a *App) authorize(c echo.Context) Authorization {
	user := CurrentUser(c)
	if sess, err := session.Get(sessionName, c); err == nil {
		if elevated, ok := sess.Values[sessKeyElevated].(bool); ok && elevated {
			return Authorization{Source: AuthElevated, User: user}
		}
	}
	if user != nil {
		return Authorization{Source: AuthIdentity, User: user}
	}
	return Authorization{Source: AuthNone}
}

// viewer packages the identity for templates.
func (a *App) viewer(c echo.Context) Viewer {
	auth := a.authorize(c)
	return Viewer{User: auth.User, IsAdmin: auth.Admin()}
}

// localHosts never get https login links, primarily for local development.
func isLocalHost(host string) bool {
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return host == "localhost" || host == "127.0.0.1" || host == "::1" ||
		strings.HasSuffix(host, ".local")
}

// requestBaseURL reconstructs scheme://host for the inbound request.
func requestBaseURL(c echo.Context) string {
	scheme := "https"
	if isLocalHost(c.Request().Host) {
		scheme = "http"
	}
	return scheme + "://" + c.Request().Host
}

// LoginLink constructs the provider authorization URL for this request and
// stores a fresh state nonce in the session.
func (a *App) LoginLink(c echo.Context) (string, error) {
	state := uuid.NewString()
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", err
	}
	sess.Values[sessKeyOAuthState] = state
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return a.GitHub.AuthCodeURL(state, requestBaseURL(c)+"/redirect"), nil
}

// handleOAuthRedirect is the provider callback: it validates code and state,
// exchanges the code for a profile, signs the user in, and stores identity
// and token in the session. Every failure is recoverable by retrying from
// the login page.
func (a *App) handleOAuthRedirect(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}

	fail := func(reason string) error {
		sess.Values[sessKeyLoginError] = reason
		delete(sess.Values, sessKeyOAuthState)
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	code := c.QueryParam("code")
	if code == "" {
		return fail("missing authorization code")
	}
	wantState, _ := sess.Values[sessKeyOAuthState].(string)
	if wantState == "" || c.QueryParam("state") != wantState {
		return fail("state mismatch")
	}

	ctx := c.Request().Context()
	token, err := a.GitHub.Exchange(ctx, code, requestBaseURL(c)+"/redirect")
	if err != nil {
		c.Logger().Warnf("oauth exchange failed: %v", err)
		return fail("token exchange failed")
	}
	profile, err := a.GitHub.FetchProfile(ctx, token)
	if err != nil {
		c.Logger().Warnf("profile fetch failed: %v", err)
		return fail("profile fetch failed")
	}
	if profile.ID == 0 {
		return fail("missing identity")
	}

	user, err := a.Store.SignIn(profile)
	if err != nil {
		return err
	}

	sess.Values[sessKeyGitHubID] = user.GitHubID
	sess.Values[sessKeyToken] = token
	delete(sess.Values, sessKeyOAuthState)
	delete(sess.Values, sessKeyLoginError)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// handleLogout clears identity, token, and any elevation, then returns the
// caller to the login page.
func (a *App) handleLogout(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessKeyGitHubID)
	delete(sess.Values, sessKeyToken)
	delete(sess.Values, sessKeyElevated)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// elevateSession marks the session admin-elevated after a password challenge.
func elevateSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessKeyElevated] = true
	return sess.Save(c.Request(), c.Response())
}

// sessionToken returns the stored OAuth access token, if any.
func sessionToken(c echo.Context) (string, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", false
	}
	tok, ok := sess.Values[sessKeyToken].(string)
	return tok, ok && tok != ""
}

// takeLoginError pops the recorded login failure reason from the session.
func takeLoginError(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	reason, _ := sess.Values[sessKeyLoginError].(string)
	if reason != "" {
		delete(sess.Values, sessKeyLoginError)
		_ = sess.Save(c.Request(), c.Response())
	}
	return reason
}
