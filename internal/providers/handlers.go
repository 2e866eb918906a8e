package providers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

var zip5 = regexp.MustCompile(`^\d{5}$`)

func isZip5(s string) bool { return zip5.MatchString(s) }

// Finder is the part of Service the HTTP handlers depend on.
type Finder interface {
	Search(ctx context.Context, procedure *string, zip string, radiusKm float64) (*SearchOutcome, error)
	Suggest(ctx context.Context, partial string) ([]Suggestion, error)
	Details(ctx context.Context, ccn string) (*ProviderDetail, error)
}

// Handlers serves /providers.
type Handlers struct {
	svc           Finder
	defaultRadius float64
	maxRadius     float64
}

func NewHandlers(svc Finder, defaultRadiusKm, maxRadiusKm float64) *Handlers {
	return &Handlers{svc: svc, defaultRadius: defaultRadiusKm, maxRadius: maxRadiusKm}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// SearchProviders handles GET /providers?drg=&zip=&radius_km=
func (h *Handlers) SearchProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	zip := strings.TrimSpace(q.Get("zip"))
	if zip == "" {
		http.Error(w, "ZIP code is required.", http.StatusBadRequest)
		return
	}
	if !isZip5(zip) {
		http.Error(w, "Missing or invalid zip parameter", http.StatusBadRequest)
		return
	}

	radius := h.defaultRadius
	if raw := strings.TrimSpace(q.Get("radius_km")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 1 || v > h.maxRadius {
			http.Error(w, "Invalid radius_km parameter", http.StatusBadRequest)
			return
		}
		radius = v
	}

	var drg *string
	if raw := strings.TrimSpace(q.Get("drg")); raw != "" {
		drg = &raw
	}

	out, err := h.svc.Search(r.Context(), drg, zip, radius)
	switch {
	case errors.Is(err, ErrZipRequired):
		http.Error(w, "ZIP code is required.", http.StatusBadRequest)
		return
	case errors.Is(err, ErrInvalidZip), errors.Is(err, ErrInvalidRadius):
		http.Error(w, "Invalid search parameters", http.StatusBadRequest)
		return
	case errors.Is(err, ErrZipNotFound):
		http.Error(w, "ZIP not found", http.StatusNotFound)
		return
	case err != nil:
		log.Printf("[SearchProviders] zip=%s drg=%v err=%v", zip, q.Get("drg"), err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, out)
}

// DRGSuggestions handles GET /providers/drg-suggestions?q=
func (h *Handlers) DRGSuggestions(w http.ResponseWriter, r *http.Request) {
	partial := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(partial) < 2 {
		http.Error(w, "q must be at least 2 characters", http.StatusBadRequest)
		return
	}

	suggestions, err := h.svc.Suggest(r.Context(), partial)
	if err != nil {
		log.Printf("[DRGSuggestions] q=%q err=%v", partial, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"suggestions": suggestions})
}

// GetProvider handles GET /providers/{ccn}
func (h *Handlers) GetProvider(w http.ResponseWriter, r *http.Request) {
	ccn := strings.TrimSpace(chi.URLParam(r, "ccn"))
	if ccn == "" {
		http.Error(w, "Missing ccn parameter", http.StatusBadRequest)
		return
	}

	detail, err := h.svc.Details(r.Context(), ccn)
	switch {
	case errors.Is(err, ErrProviderNotFound):
		http.Error(w, "Provider not found", http.StatusNotFound)
		return
	case err != nil:
		log.Printf("[GetProvider] ccn=%s err=%v", ccn, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, detail)
}
