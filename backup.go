package folio

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// backupFilenames lists the database files the admin panel may download: the
// main file plus SQLite's write-ahead log and shared-memory sidecars.
func (a *App) backupFilenames() []string {
	base := filepath.Base(a.Store.Path())
	return []string{base, base + "-wal", base + "-shm"}
}

// handleBackupDownload streams one of the database files to the admin. Only
// the exact known filenames are served, which also shuts out path traversal.
func (a *App) handleBackupDownload(c echo.Context) error {
	if !a.requireAdmin(c) {
		return redirectHome(c)
	}
	filename := c.Param("filename")
	allowed := false
	for _, name := range a.backupFilenames() {
		if filename == name {
			allowed = true
			break
		}
	}
	if !allowed {
		return c.NoContent(http.StatusNotFound)
	}
	path := filepath.Join(filepath.Dir(a.Store.Path()), filename)
	if _, err := os.Stat(path); err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	return c.Attachment(path, filename)
}

// handleBackupUpload restores the database from an uploaded file. The swap
// happens under the store's exclusive lock so no query sees a half-replaced
// file. Failures come back as an inline admin-page alert.
func (a *App) handleBackupUpload(c echo.Context) error {
	if !a.requireAdmin(c) {
		return redirectHome(c)
	}
	file, err := c.FormFile("database")
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/admin?msg=No+database+file+provided.")
	}
	if !strings.HasSuffix(file.Filename, filepath.Ext(a.Store.Path())) {
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Unexpected+file+type.")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	// Stage next to the live file so the rename stays on one filesystem.
	staging := a.Store.Path() + ".upload"
	dst, err := os.Create(staging)
	if err != nil {
		c.Logger().Errorf("stage upload: %v", err)
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Upload+failed.")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(staging)
		c.Logger().Errorf("stage upload: %v", err)
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Upload+failed.")
	}
	if err := dst.Close(); err != nil {
		os.Remove(staging)
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Upload+failed.")
	}

	if err := a.Store.Replace(staging); err != nil {
		os.Remove(staging)
		c.Logger().Errorf("restore database: %v", err)
		return c.Redirect(http.StatusSeeOther, "/admin?msg=Restore+failed.")
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin?msg=Database+restored.")
}
