package backup

import (
	"errors"
	"net/http"
)

// Service serves the upload and download pages for a staging directory.
type Service struct {
	dir      string
	maxBytes int64
	pages    *Pages
}

func NewService(stagingDir string, maxBytes int64) (*Service, error) {
	if stagingDir == "" {
		return nil, errors.New("backup: staging directory is required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	pages, err := NewPages()
	if err != nil {
		return nil, err
	}

	return &Service{dir: stagingDir, maxBytes: maxBytes, pages: pages}, nil
}

// StagingDir returns the directory archives are stored in.
func (s *Service) StagingDir() string {
	return s.dir
}

// IndexHandler serves the landing page.
func (s *Service) IndexHandler(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, http.StatusOK, pageIndex, nil)
}
