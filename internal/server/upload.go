package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// multipartMemory is how much of a multipart body is held in memory before
// spilling to disk.
const multipartMemory = 32 << 20

// upload is a received file stored under a unique temporary name that keeps
// the original extension, so format detection on either name agrees.
type upload struct {
	path     string
	filename string
	cleanup  func()
}

func (u *upload) remove() {
	if u.cleanup != nil {
		u.cleanup()
	}
}

// receiveUpload stores the "file" form field on disk. On failure it writes
// the error response and returns false.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	if limit := s.config.MaxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, false
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	form := r.MultipartForm
	src, header, err := r.FormFile(uploadField)
	if err != nil {
		_ = form.RemoveAll()
		s.respondError(w, http.StatusBadRequest, "file is required")
		return nil, false
	}
	defer src.Close()

	filename := filepath.Base(header.Filename)
	path := filepath.Join(s.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	if err := writeUpload(path, src); err != nil {
		_ = form.RemoveAll()
		s.logger.Error("store upload failed", zap.String("filename", filename), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to store upload")
		return nil, false
	}
	return &upload{
		path:     path,
		filename: filename,
		cleanup: func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("remove upload failed", zap.String("path", path), zap.Error(err))
			}
			_ = form.RemoveAll()
		},
	}, true
}

func writeUpload(path string, src io.Reader) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("copy upload: %w", err)
	}
	return dst.Close()
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}
