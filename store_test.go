package folio

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test_site.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSignInNewUser(t *testing.T) {
	s := setupTestStore(t)

	u, err := s.SignIn(GitHubProfile{
		ID:        42,
		Login:     "ada",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		AvatarURL: "https://example.com/ada.png",
		Bio:       "first programmer",
	})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if u.GitHubID != 42 {
		t.Errorf("GitHubID = %d, want 42", u.GitHubID)
	}
	if u.Username != "ada" {
		t.Errorf("Username = %q, want %q", u.Username, "ada")
	}
	if u.DisplayName != "Ada Lovelace" {
		t.Errorf("DisplayName = %q, want %q", u.DisplayName, "Ada Lovelace")
	}
	if u.IsAdmin {
		t.Error("new users must not be admins")
	}
	if !u.LastLogin.Equal(u.CreatedAt) {
		t.Errorf("LastLogin = %v, want CreatedAt %v", u.LastLogin, u.CreatedAt)
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSignInExistingUserBumpsLastLogin(t *testing.T) {
	s := setupTestStore(t)
	p := GitHubProfile{ID: 42, Login: "ada", Name: "Ada Lovelace"}

	first, err := s.SignIn(p)
	if err != nil {
		t.Fatalf("first SignIn failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	second, err := s.SignIn(p)
	if err != nil {
		t.Fatalf("second SignIn failed: %v", err)
	}

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on re-sign-in: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.LastLogin.After(first.LastLogin) {
		t.Errorf("LastLogin = %v, want later than %v", second.LastLogin, first.LastLogin)
	}

	n, err := s.CountUsers()
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

func TestSignInConcurrentSameIdentity(t *testing.T) {
	s := setupTestStore(t)
	p := GitHubProfile{ID: 7, Login: "grace"}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SignIn(p); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent SignIn failed: %v", err)
	}

	n, err := s.CountUsers()
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.GetUser(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser error = %v, want ErrNotFound", err)
	}
}

func mustCreateProject(t *testing.T, s *Store, p Project) Project {
	t.Helper()
	created, err := s.CreateProject(p)
	if err != nil {
		t.Fatalf("CreateProject %q failed: %v", p.Title, err)
	}
	// Distinct created_at values keep ordering assertions deterministic.
	time.Sleep(2 * time.Millisecond)
	return created
}

func TestListProjectsFilters(t *testing.T) {
	s := setupTestStore(t)

	mustCreateProject(t, s, Project{Title: "Alpha", Status: StatusCompleted, Tags: []string{"go", "web"}})
	mustCreateProject(t, s, Project{Title: "Beta", Status: StatusInProgress, Featured: true, Tags: []string{"go"}})
	mustCreateProject(t, s, Project{Title: "Gamma", Status: StatusArchived, Tags: []string{"rust"}})

	titles := func(ps []Project) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Title
		}
		return out
	}

	tests := []struct {
		name   string
		filter ProjectFilter
		want   []string
	}{
		{"all newest first", ProjectFilter{Newest: true}, []string{"Gamma", "Beta", "Alpha"}},
		{"all oldest first", ProjectFilter{}, []string{"Alpha", "Beta", "Gamma"}},
		{"single status", ProjectFilter{Statuses: []string{StatusCompleted}}, []string{"Alpha"}},
		{"multiple statuses", ProjectFilter{Statuses: []string{StatusCompleted, StatusArchived}}, []string{"Alpha", "Gamma"}},
		{"tag match", ProjectFilter{Tag: "go"}, []string{"Alpha", "Beta"}},
		{"featured only", ProjectFilter{Featured: boolPtr(true)}, []string{"Beta"}},
		{"not featured", ProjectFilter{Featured: boolPtr(false)}, []string{"Alpha", "Gamma"}},
		{"combined", ProjectFilter{Statuses: []string{StatusInProgress}, Tag: "go"}, []string{"Beta"}},
		{"no match", ProjectFilter{Tag: "cobol"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListProjects(tt.filter)
			if err != nil {
				t.Fatalf("ListProjects failed: %v", err)
			}
			gotTitles := titles(got)
			if len(gotTitles) != len(tt.want) {
				t.Fatalf("titles = %v, want %v", gotTitles, tt.want)
			}
			for i := range tt.want {
				if gotTitles[i] != tt.want[i] {
					t.Errorf("titles = %v, want %v", gotTitles, tt.want)
					break
				}
			}
		})
	}
}

func TestFeaturedProjectsCapsAtThreeNewestFirst(t *testing.T) {
	s := setupTestStore(t)

	for _, title := range []string{"One", "Two", "Three", "Four"} {
		mustCreateProject(t, s, Project{Title: title, Status: StatusCompleted, Featured: true})
	}
	mustCreateProject(t, s, Project{Title: "Plain", Status: StatusCompleted})

	got, err := s.FeaturedProjects()
	if err != nil {
		t.Fatalf("FeaturedProjects failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []string{"Four", "Three", "Two"}
	for i := range want {
		if got[i].Title != want[i] {
			t.Errorf("got[%d].Title = %q, want %q", i, got[i].Title, want[i])
		}
	}
}

func TestCreateProjectNormalizesTags(t *testing.T) {
	s := setupTestStore(t)

	mustCreateProject(t, s, Project{Title: "Tagged", Status: StatusCompleted, Tags: []string{" Go ", "WEB"}})

	got, err := s.ListProjects(ProjectFilter{})
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if len(got[0].Tags) != 2 || got[0].Tags[0] != "go" || got[0].Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", got[0].Tags)
	}
}

func TestCreateAndGetBlogPost(t *testing.T) {
	s := setupTestStore(t)

	created, err := s.CreateBlogPost(BlogPost{
		Title:       "Hello World",
		Description: "first post",
		Slug:        "hello-world",
		Published:   true,
		AuthorID:    42,
		Tags:        []string{"go", "intro"},
	})
	if err != nil {
		t.Fatalf("CreateBlogPost failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("created post should have an id")
	}

	got, err := s.GetBlogPost("hello-world")
	if err != nil {
		t.Fatalf("GetBlogPost failed: %v", err)
	}
	if got.Title != "Hello World" {
		t.Errorf("Title = %q, want %q", got.Title, "Hello World")
	}
	if got.Views != 0 {
		t.Errorf("Views = %d, want 0", got.Views)
	}
	if !got.Published {
		t.Error("Published should be true")
	}
	if got.AuthorID != 42 {
		t.Errorf("AuthorID = %d, want 42", got.AuthorID)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "intro" {
		t.Errorf("Tags = %v, want [go intro]", got.Tags)
	}
}

func TestCreateBlogPostDuplicateSlug(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.CreateBlogPost(BlogPost{Title: "A", Slug: "taken"}); err != nil {
		t.Fatalf("CreateBlogPost failed: %v", err)
	}
	if _, err := s.CreateBlogPost(BlogPost{Title: "B", Slug: "taken"}); !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("error = %v, want ErrDuplicateSlug", err)
	}
}

func TestGetBlogPostNotFound(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.GetBlogPost("no-such-post"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListBlogPostsPublishedOnly(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.CreateBlogPost(BlogPost{Title: "Live", Slug: "live", Published: true}); err != nil {
		t.Fatalf("CreateBlogPost failed: %v", err)
	}
	if _, err := s.CreateBlogPost(BlogPost{Title: "Draft", Slug: "draft"}); err != nil {
		t.Fatalf("CreateBlogPost failed: %v", err)
	}

	published, err := s.ListBlogPosts(true)
	if err != nil {
		t.Fatalf("ListBlogPosts(true) failed: %v", err)
	}
	if len(published) != 1 || published[0].Slug != "live" {
		t.Errorf("published = %v, want only live", published)
	}

	all, err := s.ListBlogPosts(false)
	if err != nil {
		t.Fatalf("ListBlogPosts(false) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}
}

func TestIncrementViews(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.CreateBlogPost(BlogPost{Title: "Counted", Slug: "counted", Published: true}); err != nil {
		t.Fatalf("CreateBlogPost failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := s.IncrementViews("counted"); err != nil {
			t.Fatalf("IncrementViews #%d failed: %v", i+1, err)
		}
	}

	got, err := s.GetBlogPost("counted")
	if err != nil {
		t.Fatalf("GetBlogPost failed: %v", err)
	}
	if got.Views != 5 {
		t.Errorf("Views = %d, want 5", got.Views)
	}
}

func TestIncrementViewsUnknownSlug(t *testing.T) {
	s := setupTestStore(t)

	if err := s.IncrementViews("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestContactLifecycle(t *testing.T) {
	s := setupTestStore(t)

	created, err := s.CreateContact("Ada", "ada@example.com", "I enjoyed your last post.")
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}
	if created.Responded || created.Deleted || created.ResponseDate != nil {
		t.Errorf("new contact = %+v, want unresponded, undeleted, no response date", created)
	}

	// Mark responded: the response date gets stamped.
	if err := s.ToggleContactResponded(created.ID); err != nil {
		t.Fatalf("ToggleContactResponded failed: %v", err)
	}
	got, err := s.GetContact(created.ID)
	if err != nil {
		t.Fatalf("GetContact failed: %v", err)
	}
	if !got.Responded {
		t.Error("Responded should be true after toggle")
	}
	if got.ResponseDate == nil || got.ResponseDate.IsZero() {
		t.Error("ResponseDate should be stamped after toggle")
	}

	// Toggle back: the response date clears.
	if err := s.ToggleContactResponded(created.ID); err != nil {
		t.Fatalf("second ToggleContactResponded failed: %v", err)
	}
	got, err = s.GetContact(created.ID)
	if err != nil {
		t.Fatalf("GetContact failed: %v", err)
	}
	if got.Responded {
		t.Error("Responded should be false after second toggle")
	}
	if got.ResponseDate != nil {
		t.Errorf("ResponseDate = %v, want nil after second toggle", got.ResponseDate)
	}
}

func TestSoftDeleteContactKeepsRow(t *testing.T) {
	s := setupTestStore(t)

	keep, err := s.CreateContact("Keep", "keep@example.com", "hello")
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}
	drop, err := s.CreateContact("Drop", "drop@example.com", "spam")
	if err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	if err := s.SoftDeleteContact(drop.ID); err != nil {
		t.Fatalf("SoftDeleteContact failed: %v", err)
	}

	active, err := s.ListActiveContacts()
	if err != nil {
		t.Fatalf("ListActiveContacts failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != keep.ID {
		t.Errorf("active contacts = %v, want only id %d", active, keep.ID)
	}

	// The row itself survives.
	got, err := s.GetContact(drop.ID)
	if err != nil {
		t.Fatalf("GetContact after soft delete failed: %v", err)
	}
	if !got.Deleted {
		t.Error("Deleted should be true")
	}
	if got.Message != "spam" {
		t.Errorf("Message = %q, want %q", got.Message, "spam")
	}
}

func TestImageMetadataRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	img := Image{
		Filename:     "cover-1.jpg",
		OriginalName: "My Cover.png",
		Width:        800,
		Height:       600,
		Size:         12345,
		UploadedAt:   "2026-08-31T10:00:00Z",
	}
	if err := s.SaveImage(img); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	images, err := s.ListImages()
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("len = %d, want 1", len(images))
	}
	if images[0] != img {
		t.Errorf("image = %+v, want %+v", images[0], img)
	}

	if err := s.DeleteImage("cover-1.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	images, err = s.ListImages()
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("len = %d, want 0 after delete", len(images))
	}
}

func TestReplaceSwapsDatabase(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(filepath.Join(dir, "live.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()
	if _, err := s.CreateBlogPost(BlogPost{Title: "Old", Slug: "old", Published: true}); err != nil {
		t.Fatalf("CreateBlogPost failed: %v", err)
	}

	// Build a second database to restore from.
	backupPath := filepath.Join(dir, "backup.db")
	backup, err := NewStore(backupPath)
	if err != nil {
		t.Fatalf("failed to create backup store: %v", err)
	}
	if _, err := backup.CreateBlogPost(BlogPost{Title: "Restored", Slug: "restored", Published: true}); err != nil {
		t.Fatalf("CreateBlogPost in backup failed: %v", err)
	}
	if err := backup.Close(); err != nil {
		t.Fatalf("closing backup store failed: %v", err)
	}

	if err := s.Replace(backupPath); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if _, err := s.GetBlogPost("old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old post error = %v, want ErrNotFound after restore", err)
	}
	got, err := s.GetBlogPost("restored")
	if err != nil {
		t.Fatalf("GetBlogPost after restore failed: %v", err)
	}
	if got.Title != "Restored" {
		t.Errorf("Title = %q, want %q", got.Title, "Restored")
	}
}

func boolPtr(b bool) *bool { return &b }
