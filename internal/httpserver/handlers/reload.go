package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/scheduler"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload triggers a manual refresh of the org list
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if scheduler.Trigger(d.ReloadTrigger) {
			d.Logger.Info("manual org reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Triggered: true, Message: "reload triggered"})
			return
		}

		d.Logger.Warn("org reload already pending",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusTooManyRequests, reloadResponse{Message: "reload already pending, please wait"})
	}
}
