package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/labcms/internal/server/services"
)

// multipartOverhead allows for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

type uploadResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
	URL     string `json:"url"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > services.MaxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
		return
	}

	up, err := s.uploads.Upload(r.Context(), file, header.Size, header.Filename)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "image uploaded", "key", up.Key, "size", up.Size)
	writeJSON(w, http.StatusCreated, uploadResponse{Success: true, Key: up.Key, URL: up.URL})
}
