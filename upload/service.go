// Package upload is the file-upload collaborator. It stores uploaded
// bytes on local disk behind a mimetype allowlist and hands back the
// reference clients embed as file message content.
package upload

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"chat-hub/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/uploads/"

// allowedTypes mirrors the images-and-documents policy: anything else
// is rejected regardless of the claimed file extension.
var allowedTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"application/pdf":    {},
	"application/msword": {},
	"text/plain":         {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

type Stored struct {
	URL          string `json:"fileUrl"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
}

type Service struct {
	dir     string
	maxSize int64
	log     *slog.Logger
}

func NewService(dir string, maxSize int64, log *slog.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &Service{dir: dir, maxSize: maxSize, log: log}, nil
}

// Store persists the reader's bytes under a collision-free name and
// returns the public reference.
func (s *Service) Store(originalName string, r io.Reader) (Stored, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return Stored{}, err
	}
	if int64(len(data)) > s.maxSize {
		return Stored{}, errors.ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	base := detected.String()
	if i := strings.Index(base, ";"); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if _, ok := allowedTypes[base]; !ok {
		return Stored{}, errors.ErrFileTypeNotAllowed
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = detected.Extension()
	}
	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return Stored{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}

	return Stored{
		URL:          URLPrefix + filename,
		OriginalName: filepath.Base(originalName),
		Size:         int64(len(data)),
		MimeType:     detected.String(),
	}, nil
}

// Dir returns the storage directory for static serving.
func (s *Service) Dir() string { return s.dir }

// TokenVerifier gates the endpoint to authenticated users.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Handler exposes POST /api/upload as a multipart endpoint guarded by a
// bearer token.
func (s *Service) Handler(verifier TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "access token required")
			return
		}
		if _, err := verifier.Verify(token); err != nil {
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		defer file.Close()

		stored, err := s.Store(header.Filename, file)
		switch {
		case stderrors.Is(err, errors.ErrFileTooLarge):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file too large, maximum size is %d bytes", s.maxSize))
		case stderrors.Is(err, errors.ErrFileTypeNotAllowed):
			writeError(w, http.StatusBadRequest, "only images and documents are allowed")
		case err != nil:
			s.log.Error("file upload failed", "error", err)
			writeError(w, http.StatusInternalServerError, "file upload failed")
		default:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(stored)
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
