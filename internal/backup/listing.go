package backup

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"
)

var archivePattern = regexp.MustCompile(`\.tgz$`)

// ListArchives returns the names of archives in dir, sorted by name.
func ListArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: read staging dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if archivePattern.MatchString(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

type listPage struct {
	Files []string
}

// ListHandler renders the download page.
func (s *Service) ListHandler(w http.ResponseWriter, r *http.Request) {
	files, err := ListArchives(s.dir)
	if err != nil {
		log.Error("Listing backups failed", "dir", s.dir, "error", err)
		files = nil
	}
	s.pages.render(w, http.StatusOK, pageList, listPage{Files: files})
}

// DownloadHandler streams one archive from the staging directory. Only the
// base name of the file parameter is used.
func (s *Service) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	name := baseName(r.URL.Query().Get("file"))
	if !archivePattern.MatchString(name) {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	log.Info("Backup downloaded", "file", name, "remote", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}
