package backup

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"nodebackup/internal/support"
)

const (
	// DefaultMaxUploadBytes is the largest archive accepted.
	DefaultMaxUploadBytes = 500000

	// UploadField is the multipart field carrying the archive.
	UploadField = "fileToUpload"

	multipartMemory   = 1 << 20
	multipartOverhead = 1 << 16
)

const (
	msgTooLarge    = "Sorry, your file is too large."
	msgWrongType   = "Sorry, only tar gzip (tgz) files are allowed."
	msgNotUploaded = "Sorry, your file was not uploaded."
	msgWriteFailed = "Sorry, there was an error uploading your file."
	msgNoFile      = "No file was selected."
)

var allowedUploadTypes = map[string]struct{}{
	"tar": {},
	"tgz": {},
}

// UploadResult is the outcome of a single upload attempt.
type UploadResult struct {
	Name     string
	Saved    bool
	Messages []string
	Status   int
}

// Save validates an archive and stores it in the staging directory under the
// base name of filename, replacing any previous file of that name.
func (s *Service) Save(filename string, size int64, data io.Reader) UploadResult {
	name := baseName(filename)
	result := UploadResult{Name: name, Status: http.StatusOK}

	rejected := false
	if size > s.maxBytes {
		result.Messages = append(result.Messages, msgTooLarge)
		result.Status = http.StatusRequestEntityTooLarge
		rejected = true
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := allowedUploadTypes[ext]; !ok {
		result.Messages = append(result.Messages, msgWrongType)
		if !rejected {
			result.Status = http.StatusUnsupportedMediaType
		}
		rejected = true
	}

	if rejected {
		result.Messages = append(result.Messages, msgNotUploaded)
		return result
	}

	// The declared size can lie; the copy fails before the rename once the
	// body passes the limit, so an existing archive is left untouched.
	written, err := support.WriteFileAtomic(filepath.Join(s.dir, name), &capReader{r: data, remaining: s.maxBytes}, 0o644)
	if errors.Is(err, errArchiveTooLarge) {
		log.Warn("Backup upload exceeded limit", "file", name, "limit", s.maxBytes)
		result.Messages = append(result.Messages, msgTooLarge, msgNotUploaded)
		result.Status = http.StatusRequestEntityTooLarge
		return result
	}
	if err != nil {
		log.Error("Backup upload failed", "file", name, "error", err)
		result.Messages = append(result.Messages, msgWriteFailed)
		result.Status = http.StatusInternalServerError
		return result
	}

	log.Info("Backup uploaded", "file", name, "bytes", written)
	result.Saved = true
	result.Messages = append(result.Messages, fmt.Sprintf("The file %s has been uploaded.", name))
	return result
}

// UploadHandler accepts the multipart upload form.
func (s *Service) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.pages.render(w, http.StatusRequestEntityTooLarge, pageResult, UploadResult{
				Messages: []string{msgTooLarge, msgNotUploaded},
			})
			return
		}
		s.pages.render(w, http.StatusBadRequest, pageResult, UploadResult{
			Messages: []string{msgNoFile, msgNotUploaded},
		})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		s.pages.render(w, http.StatusBadRequest, pageResult, UploadResult{
			Messages: []string{msgNoFile, msgNotUploaded},
		})
		return
	}
	defer file.Close()

	result := s.Save(header.Filename, header.Size, file)
	s.pages.render(w, result.Status, pageResult, result)
}

// UploadFormHandler serves the upload form.
func (s *Service) UploadFormHandler(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, http.StatusOK, pageUpload, nil)
}

var errArchiveTooLarge = errors.New("backup: archive exceeds upload limit")

// capReader fails once more than remaining bytes have been read.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errArchiveTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, errArchiveTooLarge
	}
	return n, err
}

func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
