package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arkivio/arkiv/internal/catalog"
	"github.com/arkivio/arkiv/internal/errs"
	"github.com/go-chi/chi/v5"
)

// downloadTTL is how long a presigned download URL stays valid.
const downloadTTL = 15 * time.Minute

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := s.catalog.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	doc, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) updateFile(w http.ResponseWriter, r *http.Request) {
	var patch catalog.UpdatePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := s.catalog.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	url, err := s.catalog.DownloadURL(r.Context(), chi.URLParam(r, "id"), downloadTTL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url":       url,
		"expiresAt": time.Now().UTC().Add(downloadTTL).Format(time.RFC3339),
	})
}

func (s *Server) fileContent(w http.ResponseWriter, r *http.Request) {
	doc, obj, err := s.catalog.Content(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer obj.Close()

	escaped := strings.ReplaceAll(doc.Filename, `"`, `\"`)
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, escaped))
	if _, err := io.Copy(w, obj); err != nil {
		s.log.WarnWith("content copy interrupted", err, map[string]interface{}{"id": doc.ID})
	}
}

func (s *Server) searchFiles(w http.ResponseWriter, r *http.Request) {
	hits, err := s.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, p := range s.health {
		if err := p.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"failed": name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

// decodeJSON decodes the request body into v. Validation errors raised by
// custom unmarshalers (e.g. tags must be an array) pass through unchanged.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return e
		}
		return errs.Wrap(errs.ErrKindValidation, "invalid JSON body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error kind to an HTTP status and a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(errs.KindOf(err))
	if status >= http.StatusInternalServerError {
		s.log.ErrorWith("request failed", err, nil)
	}

	msg := "internal error"
	var e *errs.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusOf(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindValidation:
		return http.StatusBadRequest
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindConflict:
		return http.StatusConflict
	case errs.ErrKindStorage:
		return http.StatusBadGateway
	case errs.ErrKindSearchUnavailable:
		return http.StatusServiceUnavailable
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
