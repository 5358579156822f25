// Package routes collects route groups registered from init functions, one
// file per group.
package routes

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry = map[string]entry{}

// Register adds a named route group with optional group middlewares. A name
// registered twice is a programming error.
func Register(name string, reg Registrar, mws ...Middleware) {
	if _, dup := registry[name]; dup {
		panic("routes: group registered twice: " + name)
	}
	registry[name] = entry{name: name, reg: reg, mws: mws}
}

// RegisterAll mounts every group on r, in name order. Called once from
// httpserver.NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := registry[name]
		if len(e.mws) == 0 {
			e.reg(r, d)
		} else {
			e.reg(r.With(e.mws...), d)
		}
		d.Logger.Debug("route group registered", logger.String("group", name))
	}
}
