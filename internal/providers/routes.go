package providers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.SearchProviders)
	r.Get("/drg-suggestions", h.DRGSuggestions)
	r.Get("/{ccn}", h.GetProvider)

	return r
}
