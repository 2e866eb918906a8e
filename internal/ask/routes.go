package ask

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts POST / for the assistant. mws wrap only this router.
func SetupRoutes(h *Handlers, mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mws...)

	r.Post("/", h.Ask)

	return r
}
