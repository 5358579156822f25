package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/mw"
)

func init() { Register("mutations", registerMutations) }

func registerMutations(r chi.Router, d deps.Deps) {
	limited := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.SameOrigin(d.AllowedHosts, d.Logger),
		mw.RequireJSON,
		mw.RateLimit(mw.RateLimitConfig{
			Rate:       d.MutationRate,
			Burst:      d.MutationBurst,
			TrustProxy: d.TrustProxy,
		}, d.Logger),
	)
	limited.Post("/api/scratch-orgs/delete", handlers.DeleteScratchOrgs(d))
	limited.Post("/api/snapshots/delete", handlers.DeleteSnapshots(d))
	limited.Post("/api/exports", handlers.Export(d))
	limited.Post("/api/reload", handlers.Reload(d))
}
