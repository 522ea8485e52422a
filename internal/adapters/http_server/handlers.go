package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"heritage_hunter/internal/domain"
)

type DatasetGetter interface {
	GetDataset(ctx context.Context, userID int64) (domain.Dataset, error)
}

type VisitWriter interface {
	SaveVisit(ctx context.Context, userID int64, in domain.VisitInput) error
	DeleteVisit(ctx context.Context, userID, pubID int64) error
}

type Handlers struct {
	Datasets DatasetGetter
	Visits   VisitWriter
	Sessions domain.SessionStore
	Limits   *UserLimits
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const maxBody = 16 << 10

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(h.Sessions))
		r.Use(RequireCSRF)
		if h.Limits != nil {
			r.Use(h.Limits.Middleware)
		}
		r.Post("/pubs/", h.listPubs)
		r.Post("/save_visit/", h.saveVisit)
		r.Post("/delete_visit/", h.deleteVisit)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrNoVisit):
		writeProblem(w, http.StatusNotFound, "Not Found", "No matching posts")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "pub not found")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	return true
}

func (h *Handlers) listPubs(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	ds, err := h.Datasets.GetDataset(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, ds)
}

func (h *Handlers) saveVisit(w http.ResponseWriter, r *http.Request) {
	var in domain.VisitInput
	if !decodeBody(w, r, &in) {
		return
	}
	sess, _ := SessionFrom(r.Context())
	if err := h.Visits.SaveVisit(r.Context(), sess.UserID, in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *Handlers) deleteVisit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PubID int64 `json:"pub_id"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	sess, _ := SessionFrom(r.Context())
	if err := h.Visits.DeleteVisit(r.Context(), sess.UserID, in.PubID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}
