package folio

import "time"

// User is a site visitor who signed in through GitHub. The GitHub account id
// is the primary key; a row is created on first sign-in and never deleted.
type User struct {
	GitHubID    int64
	Username    string
	DisplayName string
	Email       string
	AvatarURL   string
	Bio         string
	CreatedAt   time.Time
	LastLogin   time.Time
	IsAdmin     bool
}

// Project statuses form a small closed set.
const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"
)

// Project is a portfolio entry shown on the projects page and, when featured,
// on the home page.
type Project struct {
	ID          int64
	Title       string
	Description string
	ImageURL    string
	ProjectURL  string
	GitHubURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AuthorID    int64
	Featured    bool
	Status      string
	Tags        []string
}

// BlogPost is a post addressed by its unique URL slug. Views is bumped on
// every detail-page visit.
type BlogPost struct {
	ID          int64
	Title       string
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Slug        string
	Published   bool
	AuthorID    int64
	Views       int64
	Tags        []string
}

// ContactRequest is a message from the public contact form. Rows are only
// ever soft-deleted.
type ContactRequest struct {
	ID           int64
	Name         string
	Email        string
	Message      string
	CreatedAt    time.Time
	Responded    bool
	ResponseDate *time.Time
	Deleted      bool
}

// Image is metadata for an uploaded cover image stored under the static dir.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// ProjectFilter selects projects; zero-value fields impose no constraint.
type ProjectFilter struct {
	Statuses []string
	Tag      string // naive substring match on the raw tag string
	Featured *bool
	Newest   bool // created_at DESC when true, ASC otherwise
}

// GitHubProfile is the profile payload resolved once at the OAuth boundary.
// Optional fields arrive already defaulted: Name falls back to Login, Email
// and Bio to the empty string.
type GitHubProfile struct {
	ID        int64
	Login     string
	Name      string
	Email     string
	AvatarURL string
	Bio       string
}

// LanguageCount is a primary-language tally entry for GitHubStats.
type LanguageCount struct {
	Name  string
	Count int
}

// GitHubStats is the read-only profile summary rendered as an insights card.
type GitHubStats struct {
	PublicRepos  int
	Followers    int
	Following    int
	MemberSince  string // YYYY-MM-DD
	TopLanguages []LanguageCount
}
