package folio

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Spaces  around  ", "spaces-around"},
		{"Go 1.24 Released!", "go-1-24-released"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"go,web", []string{"go", "web"}},
		{" go , web ", []string{"go", "web"}},
		{",go,,web,", []string{"go", "web"}},
		{"solo", []string{"solo"}},
		{"", nil},
		{",,,", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseTags(tt.in)); diff != "" {
			t.Errorf("ParseTags(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestJoinTags(t *testing.T) {
	got := joinTags([]string{" Go ", "WEB", "", "sqlite"})
	if got != "go,web,sqlite" {
		t.Errorf("joinTags = %q, want %q", got, "go,web,sqlite")
	}
}

func TestFilterEmpty(t *testing.T) {
	got := FilterEmpty([]string{"a", " ", "", "b "})
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterEmpty mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectTags(t *testing.T) {
	posts := []BlogPost{
		{Tags: []string{"go", "web"}},
		{Tags: []string{"Go", "sqlite"}},
		{Tags: nil},
	}
	want := []string{"go", "sqlite", "web"}
	if diff := cmp.Diff(want, CollectTags(posts)); diff != "" {
		t.Errorf("CollectTags mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", []string{"blog", "my-post"}, "https://example.com/blog/my-post"},
		{"https://example.com/", []string{"blog"}, "https://example.com/blog"},
		{"https://example.com/sub", []string{"feed.xml"}, "https://example.com/sub/feed.xml"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}

func TestWebsiteJsonLD(t *testing.T) {
	cfg := SiteConfig{Name: "My Site", URL: "https://example.com", Author: "Ada"}
	got := WebsiteJsonLD(cfg)

	for _, want := range []string{`"@type":"WebSite"`, `"name":"My Site"`, `"name":"Ada"`} {
		if !strings.Contains(got, want) {
			t.Errorf("WebsiteJsonLD = %s, want it to contain %s", got, want)
		}
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	cfg := SiteConfig{URL: "https://example.com", Author: "Ada"}
	post := BlogPost{
		Title:     "Hello",
		Slug:      "hello",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Tags:      []string{"go", "web"},
	}
	got := BlogPostingJsonLD(post, cfg)

	for _, want := range []string{
		`"@type":"BlogPosting"`,
		`"headline":"Hello"`,
		`"datePublished":"2026-08-01"`,
		`"url":"https://example.com/blog/hello"`,
		`"keywords":"go, web"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BlogPostingJsonLD = %s, want it to contain %s", got, want)
		}
	}
}
