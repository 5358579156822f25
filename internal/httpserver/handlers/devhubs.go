package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/panel"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

// DevHubs returns the authorized org list (?forceRefresh=true bypasses the cache).
func DevHubs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("forceRefresh"))

		orgs, err := d.Service.GetAuthorizedOrgs(r.Context(), force)
		if err != nil {
			writeError(w, http.StatusBadGateway, sfcli.ErrorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, orgs)
	}
}

// DevHubsStream streams DevHub data as server-sent events. Event names are
// the panel commands (devHubsData, devHubLimitsLoaded, ...). The stream ends
// after loadingComplete or devHubsError. ?forceRefresh=true skips every cache.
func DevHubsStream(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		// the server's write timeout must not cut a long stream
		_ = rc.SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		if err := writeEvent(w, panel.Message{Command: panel.CmdDevHubsLoading}); err != nil {
			return
		}
		_ = rc.Flush()

		events := d.Service.Stream
		if force, _ := strconv.ParseBool(r.URL.Query().Get("forceRefresh")); force {
			events = d.Service.StreamRefresh
		}
		for ev := range events(r.Context()) {
			if err := writeEvent(w, panel.EventMessage(ev)); err != nil {
				d.Logger.Debug("sse client gone", logger.Error(err))
				return
			}
			_ = rc.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, msg panel.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Command, data)
	return err
}

// ScratchOrgs lists the scratch orgs recorded by one DevHub.
func ScratchOrgs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := panel.HubRequest{DevHubUsername: chi.URLParam(r, "username")}
		if err := panel.Validate(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		orgs, err := d.Service.GetAllScratchOrgsForDevHub(r.Context(), req.DevHubUsername)
		if err != nil {
			writeError(w, http.StatusBadGateway, sfcli.ErrorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, panel.ScratchOrgsPayload{
			DevHubUsername: req.DevHubUsername,
			ScratchOrgs:    orgs,
		})
	}
}

// Snapshots lists the org snapshots of one DevHub. A DevHub without the
// feature answers 200 with status "unavailable".
func Snapshots(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := panel.HubRequest{DevHubUsername: chi.URLParam(r, "username")}
		if err := panel.Validate(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		listing, err := d.Service.GetAllSnapshotsForDevHub(r.Context(), req.DevHubUsername)
		if err != nil {
			writeError(w, http.StatusBadGateway, sfcli.ErrorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, panel.SnapshotsPayload{
			DevHubUsername: req.DevHubUsername,
			Snapshots:      listing.Snapshots,
			Status:         listing.Status,
		})
	}
}
