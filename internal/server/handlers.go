package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bryan-buckman/recallfinder/internal/letters"
	"github.com/bryan-buckman/recallfinder/internal/nhtsa"
)

// --- Page Handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", map[string]interface{}{
		"Years": letters.Years(s.opts.Now()),
	})
}

// --- API Handlers ---

func (s *Server) handleManufacturers(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	order := letters.SortByDate
	if q := r.URL.Query(); q.Has("sort") {
		order = letters.ParseSortOrder(q.Get("sort"))
	}

	listing, err := s.svc.Manufacturers(r.Context(), year, order)
	if err != nil {
		msg := "Invalid data format received from API"
		if errors.Is(err, letters.ErrNoData) {
			msg = fmt.Sprintf("No data found for year %d", year)
		}
		writeJSON(w, map[string]interface{}{
			"manufacturers": []string{},
			"error":         msg,
		})
		return
	}

	var list interface{} = listing.ByName
	if listing.SortedBy == letters.SortByDate {
		list = listing.ByDate
	}
	writeJSON(w, map[string]interface{}{
		"manufacturers": list,
		"sorted_by":     listing.SortedBy,
	})
}

type versionsRequest struct {
	Manufacturers []string `json:"manufacturers" validate:"required,min=1"`
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	var req versionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body")
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, "No manufacturers selected")
		return
	}

	versions, err := s.svc.Versions(r.Context(), year, req.Manufacturers)
	if err != nil {
		writeError(w, versionsErrorMessage(year, err))
		return
	}
	writeJSON(w, map[string]interface{}{"versions": versions})
}

func versionsErrorMessage(year int, err error) string {
	switch {
	case errors.Is(err, letters.ErrNoManufacturers):
		return "No manufacturers selected"
	case errors.Is(err, letters.ErrNoData):
		return fmt.Sprintf("No data available for year %d", year)
	case errors.Is(err, letters.ErrNoVersions):
		return "No versions found for selected manufacturers"
	default:
		return "Invalid data format received from API"
	}
}

type documentRequest struct {
	Manufacturer string `validate:"required"`
	Version      string `validate:"required"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	inline := r.Method == http.MethodGet
	req := documentRequest{
		Manufacturer: r.URL.Query().Get("manufacturer"),
		Version:      r.URL.Query().Get("version"),
	}
	if !inline {
		req.Manufacturer = r.PostFormValue("manufacturer")
		req.Version = r.PostFormValue("version")
	}
	s.log.Info("document request",
		zap.Int("year", year),
		zap.String("manufacturer", req.Manufacturer),
		zap.String("version", req.Version),
		zap.Bool("inline", inline))

	if err := validateStruct(&req); err != nil {
		writeError(w, "Missing manufacturer or version")
		return
	}

	doc, err := s.svc.Download(r.Context(), year, req.Manufacturer, req.Version)
	if err != nil {
		writeError(w, documentErrorMessage(year, err))
		return
	}

	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	if _, err := w.Write(doc.Content); err != nil {
		s.log.Warn("write document", zap.Error(err))
	}
}

func documentErrorMessage(year int, err error) string {
	var notFound *letters.NotFoundError
	var status *nhtsa.StatusError
	switch {
	case errors.Is(err, letters.ErrNoData):
		return fmt.Sprintf("No data available for year %d", year)
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.Is(err, letters.ErrURLMissing):
		return "PDF URL not available in data"
	case errors.As(err, &status):
		return fmt.Sprintf("Could not fetch PDF. Status code: %d", status.Code)
	default:
		return fmt.Sprintf("Error accessing PDF: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":       "ok",
		"cached_years": s.svc.CachedYears(),
	})
}

// --- Helpers ---

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return year, true
}

// writeJSON always answers 200; failures are reported in the body.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, map[string]string{"error": msg})
}
