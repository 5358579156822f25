package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	DevHubs    *int   `json:"devhubs,omitempty"`
	ScratchOrg *int   `json:"scratch_orgs,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the org cache and of the optional redis mirror.
// It never triggers a CLI call.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"orgs":  checkOrgs(r.Context(), d),
			"redis": checkRedis(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	if orgs, exists := components["orgs"]; exists && !orgs.OK {
		return "critical" // nothing to show the panel yet
	}

	// Redis is only a mirror of the snapshot file
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}

	return "ok"
}

func checkOrgs(ctx context.Context, d deps.Deps) componentStatus {
	if !d.Service.HasOrgs() {
		return componentStatus{OK: false, Error: "org list not loaded yet"}
	}
	orgs, err := d.Service.GetAuthorizedOrgs(ctx, false)
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	hubs, scratch := len(orgs.DevHubs), len(orgs.ScratchOrgs)
	return componentStatus{OK: true, DevHubs: &hubs, ScratchOrg: &scratch}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "snapshot-file-only",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "snapshot-mirror-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "snapshot-mirror-enabled",
	}
}
