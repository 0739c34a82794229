package reconcilehttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the comparison endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	// Comparisons fan out to many backing queries; keep callers honest.
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/daily", h.handleDaily)
	r.Get("/artists", h.handleArtists)
	r.Post("/cache/bump", h.handleCacheBump)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/compare/dates", h.handleCompareDates)
		gr.Get("/compare/artists", h.handleCompareArtists)
	})
}
