package folio

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// ErrDuplicateSlug is returned when creating a blog post whose slug is taken.
var ErrDuplicateSlug = fmt.Errorf("folio: slug already exists")

// timeLayout is fixed-width UTC so text ORDER BY sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Store wraps a SQLite database and provides CRUD operations for users,
// projects, blog posts, contact requests, and image metadata.
//
// The RWMutex serializes normal queries (read side) against backup restore,
// which closes and replaces the database file under the write side.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	// WAL for concurrent read/write access, busy_timeout so writers wait
	// instead of returning SQLITE_BUSY, synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s.db = db
	return s.ensureSchema()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    github_id INTEGER PRIMARY KEY,
    username TEXT NOT NULL,
    display_name TEXT NOT NULL,
    email TEXT NOT NULL,
    avatar_url TEXT NOT NULL,
    bio TEXT NOT NULL,
    created_at TEXT NOT NULL,
    last_login TEXT NOT NULL,
    is_admin INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    project_url TEXT NOT NULL DEFAULT '',
    github_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    author_id INTEGER NOT NULL DEFAULT 0,
    featured INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'in-progress',
    tags TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS blogs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    url_slug TEXT NOT NULL UNIQUE,
    published INTEGER NOT NULL DEFAULT 0,
    author_id INTEGER NOT NULL DEFAULT 0,
    views INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS contacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at TEXT NOT NULL,
    responded INTEGER NOT NULL DEFAULT 0,
    response_date TEXT,
    deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

// --- Users ---

// SignIn reconciles a GitHub profile with the local users table. A previously
// unseen id gets a fresh row with is_admin=0 and last_login=created_at; a
// known id only has its last_login bumped. The upsert is a single statement
// so concurrent sign-ins for the same identity cannot create duplicate rows.
func (s *Store) SignIn(p GitHubProfile) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := fmtTime(time.Now())
	_, err := s.db.Exec(`
INSERT INTO users (github_id, username, display_name, email, avatar_url, bio, created_at, last_login, is_admin)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
ON CONFLICT(github_id) DO UPDATE SET last_login = excluded.last_login`,
		p.ID, p.Login, p.Name, p.Email, p.AvatarURL, p.Bio, now, now)
	if err != nil {
		return User{}, err
	}
	return s.getUserLocked(p.ID)
}

// GetUser returns a user by GitHub id.
func (s *Store) GetUser(githubID int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserLocked(githubID)
}

func (s *Store) getUserLocked(githubID int64) (User, error) {
	var u User
	var createdAt, lastLogin string
	var isAdmin int
	err := s.db.QueryRow(`SELECT github_id, username, display_name, email, avatar_url, bio, created_at, last_login, is_admin
FROM users WHERE github_id = ?`, githubID).
		Scan(&u.GitHubID, &u.Username, &u.DisplayName, &u.Email, &u.AvatarURL, &u.Bio, &createdAt, &lastLogin, &isAdmin)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parseTime(createdAt)
	u.LastLogin = parseTime(lastLogin)
	u.IsAdmin = isAdmin == 1
	return u, nil
}

// CountUsers returns the number of user rows.
func (s *Store) CountUsers() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// --- Projects ---

const projectCols = `id, title, description, image_url, project_url, github_url, created_at, updated_at, author_id, featured, status, tags`

func scanProject(rows *sql.Rows) (Project, error) {
	var p Project
	var createdAt, updatedAt, tags string
	var featured int
	if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.ProjectURL, &p.GitHubURL,
		&createdAt, &updatedAt, &p.AuthorID, &featured, &p.Status, &tags); err != nil {
		return Project{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	p.Featured = featured == 1
	p.Tags = ParseTags(tags)
	return p, nil
}

// ListProjects returns projects matching every supplied filter. Omitted
// filter fields impose no constraint.
func (s *Store) ListProjects(f ProjectFilter) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conds []string
	var args []any
	if len(f.Statuses) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Statuses)), ",")
		conds = append(conds, "status IN ("+marks+")")
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}
	if f.Tag != "" {
		conds = append(conds, "tags LIKE ?")
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(f.Tag))+"%")
	}
	if f.Featured != nil {
		conds = append(conds, "featured = ?")
		args = append(args, boolInt(*f.Featured))
	}
	q := `SELECT ` + projectCols + ` FROM projects`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.Newest {
		q += " ORDER BY created_at DESC"
	} else {
		q += " ORDER BY created_at ASC"
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// FeaturedProjects returns up to 3 featured projects, newest first.
func (s *Store) FeaturedProjects() ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + projectCols + ` FROM projects WHERE featured = 1 ORDER BY created_at DESC LIMIT 3`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject inserts a project with created_at = updated_at = now and
// returns it with the assigned id.
func (s *Store) CreateProject(p Project) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := s.db.Exec(`
INSERT INTO projects (title, description, image_url, project_url, github_url, created_at, updated_at, author_id, featured, status, tags)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Description, p.ImageURL, p.ProjectURL, p.GitHubURL,
		fmtTime(now), fmtTime(now), p.AuthorID, boolInt(p.Featured), p.Status, joinTags(p.Tags))
	if err != nil {
		return Project{}, err
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

// --- Blog posts ---

const blogCols = `id, title, description, image_url, created_at, updated_at, url_slug, published, author_id, views, tags`

func scanBlogPost(scan func(dest ...any) error) (BlogPost, error) {
	var b BlogPost
	var createdAt, updatedAt, tags string
	var published int
	if err := scan(&b.ID, &b.Title, &b.Description, &b.ImageURL, &createdAt, &updatedAt,
		&b.Slug, &published, &b.AuthorID, &b.Views, &tags); err != nil {
		return BlogPost{}, err
	}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	b.Published = published == 1
	b.Tags = ParseTags(tags)
	return b, nil
}

// ListBlogPosts returns posts newest first. With publishedOnly, drafts are
// excluded.
func (s *Store) ListBlogPosts(publishedOnly bool) ([]BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := `SELECT ` + blogCols + ` FROM blogs`
	if publishedOnly {
		q += ` WHERE published = 1`
	}
	q += ` ORDER BY created_at DESC`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		b, err := scanBlogPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, b)
	}
	return posts, rows.Err()
}

// HomepageBlogPosts returns published posts for the home page.
func (s *Store) HomepageBlogPosts() ([]BlogPost, error) {
	return s.ListBlogPosts(true)
}

// GetBlogPost returns the single post with the given slug, or ErrNotFound.
func (s *Store) GetBlogPost(slug string) (BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+blogCols+` FROM blogs WHERE url_slug = ?`, slug)
	return scanBlogPost(row.Scan)
}

// CreateBlogPost inserts a post with views=0. A taken slug yields
// ErrDuplicateSlug.
func (s *Store) CreateBlogPost(b BlogPost) (BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Views = 0
	res, err := s.db.Exec(`
INSERT INTO blogs (title, description, image_url, created_at, updated_at, url_slug, published, author_id, views, tags)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		b.Title, b.Description, b.ImageURL, fmtTime(now), fmtTime(now),
		b.Slug, boolInt(b.Published), b.AuthorID, joinTags(b.Tags))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return BlogPost{}, ErrDuplicateSlug
		}
		return BlogPost{}, err
	}
	b.ID, err = res.LastInsertId()
	return b, err
}

// IncrementViews bumps the view counter for slug by one. The increment is a
// single UPDATE so concurrent visits cannot lose counts.
func (s *Store) IncrementViews(slug string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.Exec(`UPDATE blogs SET views = views + 1 WHERE url_slug = ?`, slug)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Contact requests ---

const contactCols = `id, name, email, message, created_at, responded, response_date, deleted`

func scanContact(scan func(dest ...any) error) (ContactRequest, error) {
	var c ContactRequest
	var createdAt string
	var responded, deleted int
	var responseDate sql.NullString
	if err := scan(&c.ID, &c.Name, &c.Email, &c.Message, &createdAt, &responded, &responseDate, &deleted); err != nil {
		return ContactRequest{}, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.Responded = responded == 1
	c.Deleted = deleted == 1
	if responseDate.Valid {
		t := parseTime(responseDate.String)
		c.ResponseDate = &t
	}
	return c, nil
}

// CreateContact stores a visitor message with responded=false, deleted=false
// and no response date.
func (s *Store) CreateContact(name, email, message string) (ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	res, err := s.db.Exec(`
INSERT INTO contacts (name, email, message, created_at, responded, response_date, deleted)
VALUES (?, ?, ?, ?, 0, NULL, 0)`,
		name, email, message, fmtTime(now))
	if err != nil {
		return ContactRequest{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ContactRequest{}, err
	}
	return ContactRequest{ID: id, Name: name, Email: email, Message: message, CreatedAt: now}, nil
}

// ListActiveContacts returns all contact requests that are not soft-deleted,
// newest first.
func (s *Store) ListActiveContacts() ([]ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + contactCols + ` FROM contacts WHERE deleted = 0 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []ContactRequest
	for rows.Next() {
		c, err := scanContact(rows.Scan)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// GetContact returns a contact request by id, soft-deleted rows included.
func (s *Store) GetContact(id int64) (ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+contactCols+` FROM contacts WHERE id = ?`, id)
	return scanContact(row.Scan)
}

// SoftDeleteContact marks a contact request deleted; the row remains stored.
func (s *Store) SoftDeleteContact(id int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.db.Exec(`UPDATE contacts SET deleted = 1 WHERE id = ?`, id)
	return err
}

// ToggleContactResponded flips the responded flag, stamping the response
// date on the way up and clearing it on the way down.
func (s *Store) ToggleContactResponded(id int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// SET expressions see the pre-update row, so responded here is the old value.
	_, err := s.db.Exec(`
UPDATE contacts SET
    responded = 1 - responded,
    response_date = CASE WHEN responded = 0 THEN ? ELSE NULL END
WHERE id = ?`, fmtTime(time.Now()), id)
	return err
}

// --- Images ---

// SaveImage stores cover image metadata.
func (s *Store) SaveImage(img Image) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.db.Exec(`
INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns all uploaded images, newest first.
func (s *Store) ListImages() ([]Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes image metadata by filename.
func (s *Store) DeleteImage(filename string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// --- Backup restore ---

// Replace swaps the backing database file with the one at uploadPath. It
// takes the exclusive side of the store lock, so it blocks until in-flight
// queries drain and no query starts against the half-swapped file.
func (s *Store) Replace(uploadPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	// Stale WAL/SHM files would shadow the restored main file.
	os.Remove(s.path + "-wal")
	os.Remove(s.path + "-shm")
	if err := os.Rename(uploadPath, s.path); err != nil {
		// Reopen the old file so the server keeps serving.
		if reopenErr := s.open(); reopenErr != nil {
			return fmt.Errorf("replace database: %v (reopen failed: %w)", err, reopenErr)
		}
		return fmt.Errorf("replace database: %w", err)
	}
	return s.open()
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	return s.path
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
