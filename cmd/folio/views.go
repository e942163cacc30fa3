package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/erikgaas/folio"
)

// defaultViews is a plain, unstyled template set so the binary runs out of
// the box. A real site replaces these with its own templ components.
func defaultViews() folio.ViewFuncs {
	return folio.ViewFuncs{
		Home:           homePage,
		BlogList:       blogListPage,
		BlogDetail:     blogDetailPage,
		ProjectList:    projectListPage,
		Login:          loginPage,
		ErrorPage:      errorPage,
		AdminLogin:     adminLoginPage,
		AdminDashboard: adminDashboardPage,
		NotFound:       func() templ.Component { return statusPage("Not Found") },
		ServerError:    func() templ.Component { return statusPage("Something went wrong") },
	}
}

func page(title string, body func(w io.Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>", html.EscapeString(title))
		body(w)
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

func esc(s string) string { return html.EscapeString(s) }

func navFor(v folio.Viewer, w io.Writer) {
	io.WriteString(w, `<nav><a href="/">Home</a> <a href="/blogposts">Blog</a> <a href="/projects">Projects</a> `)
	if v.User != nil {
		fmt.Fprintf(w, `<span>%s</span> <a href="/logout">Log out</a>`, esc(v.User.DisplayName))
	} else {
		io.WriteString(w, `<a href="/login">Sign in</a>`)
	}
	io.WriteString(w, "</nav>")
}

func homePage(v folio.Viewer, posts []folio.BlogPost, projects []folio.Project) templ.Component {
	return page("Home", func(w io.Writer) {
		navFor(v, w)
		io.WriteString(w, "<h2>Featured Projects</h2><ul>")
		for _, p := range projects {
			fmt.Fprintf(w, `<li><a href="%s">%s</a> (%s)</li>`, esc(p.ProjectURL), esc(p.Title), esc(p.Status))
		}
		io.WriteString(w, "</ul><h2>Latest Posts</h2><ul>")
		for _, b := range posts {
			fmt.Fprintf(w, `<li><a href="/blog/%s">%s</a> (%d views)</li>`, esc(b.Slug), esc(b.Title), b.Views)
		}
		io.WriteString(w, "</ul>")
	})
}

func blogListPage(v folio.Viewer, posts []folio.BlogPost, tags []string) templ.Component {
	return page("Blog", func(w io.Writer) {
		navFor(v, w)
		fmt.Fprintf(w, "<p>Tags: %s</p><ul>", esc(strings.Join(tags, ", ")))
		for _, b := range posts {
			fmt.Fprintf(w, `<li><a href="/blog/%s">%s</a>: %s</li>`, esc(b.Slug), esc(b.Title), esc(b.Description))
		}
		io.WriteString(w, "</ul>")
	})
}

func blogDetailPage(v folio.Viewer, post folio.BlogPost, insights *folio.GitHubStats) templ.Component {
	return page(post.Title, func(w io.Writer) {
		navFor(v, w)
		fmt.Fprintf(w, "<h1>%s</h1><p>%s</p><p>%d views</p>", esc(post.Title), esc(post.Description), post.Views)
		if v.User == nil {
			io.WriteString(w, "<p>Log in with GitHub to see your personalized stats!</p>")
			return
		}
		if insights == nil {
			io.WriteString(w, "<p>Unable to fetch GitHub stats at the moment.</p>")
			return
		}
		fmt.Fprintf(w, "<h3>Your GitHub Profile</h3><p>Repos: %d, Followers: %d, Following: %d, member since %s</p>",
			insights.PublicRepos, insights.Followers, insights.Following, esc(insights.MemberSince))
		for _, l := range insights.TopLanguages {
			fmt.Fprintf(w, "<span>%s (%d)</span> ", esc(l.Name), l.Count)
		}
	})
}

func projectListPage(v folio.Viewer, projects []folio.Project) templ.Component {
	return page("Projects", func(w io.Writer) {
		navFor(v, w)
		io.WriteString(w, "<ul>")
		for _, p := range projects {
			fmt.Fprintf(w, `<li>%s [%s] %s</li>`, esc(p.Title), esc(p.Status), esc(strings.Join(p.Tags, ", ")))
		}
		io.WriteString(w, "</ul>")
	})
}

func loginPage(oauthURL, reason string) templ.Component {
	return page("Sign in", func(w io.Writer) {
		if reason != "" {
			fmt.Fprintf(w, "<p>Sign-in failed: %s</p>", esc(reason))
		}
		fmt.Fprintf(w, `<a href="%s">Sign in with GitHub</a>`, esc(oauthURL))
	})
}

func errorPage(reason string) templ.Component {
	return page("Error", func(w io.Writer) {
		if reason == "" {
			reason = "something went wrong"
		}
		fmt.Fprintf(w, `<p>%s</p><a href="/login">Try again</a>`, esc(reason))
	})
}

func adminLoginPage(showError bool, csrfToken string) templ.Component {
	return page("Admin", func(w io.Writer) {
		if showError {
			io.WriteString(w, "<p>Wrong password.</p>")
		}
		fmt.Fprintf(w, `<form method="post" action="/admin/login">`+
			`<input type="hidden" name="_csrf" value="%s">`+
			`<input type="password" name="password"><button>Log in</button></form>`, esc(csrfToken))
	})
}

func adminDashboardPage(d folio.AdminData) templ.Component {
	return page("Admin", func(w io.Writer) {
		if d.Message != "" {
			fmt.Fprintf(w, "<p>%s</p>", esc(d.Message))
		}
		fmt.Fprintf(w, "<h2>Contacts (%d)</h2><ul>", len(d.Contacts))
		for _, ct := range d.Contacts {
			fmt.Fprintf(w, `<li>%s &lt;%s&gt;: %s`, esc(ct.Name), esc(ct.Email), esc(ct.Message))
			fmt.Fprintf(w, ` <form method="post" action="/contact/toggle/%d"><input type="hidden" name="_csrf" value="%s"><button>Toggle responded</button></form>`, ct.ID, esc(d.CSRFToken))
			fmt.Fprintf(w, ` <form method="post" action="/contact/delete/%d"><input type="hidden" name="_csrf" value="%s"><button>Delete</button></form></li>`, ct.ID, esc(d.CSRFToken))
		}
		fmt.Fprintf(w, "</ul><h2>Posts (%d)</h2><h2>Projects (%d)</h2><h2>Images (%d)</h2>",
			len(d.Posts), len(d.Projects), len(d.Images))
	})
}

func statusPage(msg string) templ.Component {
	return page(msg, func(w io.Writer) {
		fmt.Fprintf(w, "<h1>%s</h1>", esc(msg))
	})
}
