package httpapi

import (
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avolkovs/runbase/internal/server/storage"
)

// handleMediaUpload allocates a storage key and returns the URL the
// client should PUT the file bytes to. With the s3 backend this is a
// presigned URL; with the local backend it points back at this server.
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.media.PresignUpload(r.Context())
	if err != nil {
		s.internalError(w, r, "media upload presign failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"key":        key,
		"upload_url": url,
	})
}

func (s *Server) handleMediaGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if local, ok := s.media.(*storage.Local); ok {
		rc, err := local.Open(r.Context(), key)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				writeDetail(w, http.StatusNotFound, "Not found.")
				return
			}
			s.internalError(w, r, "media read failed", err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
		return
	}

	url, err := s.media.PresignDownload(r.Context(), key)
	if err != nil {
		s.internalError(w, r, "media download presign failed", err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleMediaPut accepts the file bytes for a previously allocated key.
// Only meaningful for the local backend; s3 clients upload directly to
// the presigned URL.
func (s *Server) handleMediaPut(w http.ResponseWriter, r *http.Request) {
	local, ok := s.media.(*storage.Local)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if err := local.Save(r.Context(), key, r.Body); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		s.internalError(w, r, "media write failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}
