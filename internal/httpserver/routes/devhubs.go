package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/mw"
)

func init() { Register("devhubs", registerDevHubs) }

func registerDevHubs(r chi.Router, d deps.Deps) {
	r.Route("/api/devhubs", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Get("/", handlers.DevHubs(d))
		r.Get("/stream", handlers.DevHubsStream(d))
		r.Get("/{username}/scratch-orgs", handlers.ScratchOrgs(d))
		r.Get("/{username}/snapshots", handlers.Snapshots(d))
	})
}
