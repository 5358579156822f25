package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/mw"
)

func init() { Register("panel", registerPanelSocket) }

func registerPanelSocket(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/ws", handlers.PanelSocket(d))
}
