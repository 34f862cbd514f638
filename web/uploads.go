/* uploads.go
 * Contains the REST routes for uploading a profile photo and fetching a user's photo by username
 * Authors: Zachary Bower
 */

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gamehub/api/apperr"
	"gamehub/api/auth"
	"gamehub/obslog"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadSize = 5 << 20

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// uploadPhotoHandler stores the multipart image field under the upload directory and sets it as the caller's photo
// Preconditions: The request went through authenticate and carries a multipart form with an image field
// Postconditions: Responds 200 with the stored file name, or with the status of the first failure
func (s *Server) uploadPhotoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated!")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "Image file missing or too large")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "User ID or image file missing")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Unsupported image type %q", ext))
		return
	}

	name := fmt.Sprintf("%s-%s%s", id.UserID, uuid.NewString(), ext)
	dest := filepath.Join(s.uploadDir, name)
	if err := saveFile(dest, file); err != nil {
		obslog.L().Error("failed to store upload", zap.String("file", dest), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error updating user image")
		return
	}

	previous, err := s.api.SetUserImage(r.Context(), name)
	if err != nil {
		_ = os.Remove(dest)
		writeMessage(w, apperr.CodeOf(err), err.Error())
		return
	}
	if previous != "" && previous != name {
		s.removeUpload(previous)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Image uploaded successfully",
		"image":   name,
	})
}

// photoHandler serves the stored photo of the user named by the username query parameter
func (s *Server) photoHandler(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeMessage(w, http.StatusBadRequest, "Username is required")
		return
	}
	image, err := s.api.UserImage(r.Context(), username)
	if err != nil {
		code := apperr.CodeOf(err)
		if code == http.StatusNotFound {
			writeMessage(w, code, "Image not found")
			return
		}
		writeMessage(w, code, err.Error())
		return
	}

	path := filepath.Join(s.uploadDir, filepath.Base(image))
	if _, err := os.Stat(path); err != nil {
		writeMessage(w, http.StatusNotFound, "Image not found")
		return
	}
	http.ServeFile(w, r, path)
}

// removeUpload deletes a replaced photo. A file that is already gone is not an error
func (s *Server) removeUpload(image string) {
	path := filepath.Join(s.uploadDir, filepath.Base(image))
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		obslog.L().Warn("failed to remove replaced upload", zap.String("file", path), zap.Error(err))
	}
}

func saveFile(dest string, src io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return out.Close()
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Debug("failed to write response", zap.Error(err))
	}
}
