package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/sflens/internal/export"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/panel"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

// DeleteScratchOrgs deletes a batch of scratch orgs. Per-item failures are
// reported in the body; the status is 200 whenever the batch ran.
func DeleteScratchOrgs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req panel.DeleteScratchOrgsRequest
		if !decodeValid(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, d.Service.DeleteScratchOrgs(r.Context(), req.ScratchOrgs))
	}
}

// DeleteSnapshots deletes a batch of org snapshots.
func DeleteSnapshots(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req panel.DeleteSnapshotsRequest
		if !decodeValid(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, d.Service.DeleteSnapshots(r.Context(), req.Snapshots))
	}
}

// Export writes a scratch-org export into the export directory, either
// rendered here from a fresh query or from content supplied by the client.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req panel.ExportRequest
		if !decodeValid(w, r, &req) {
			return
		}

		if req.Content != "" {
			path, err := d.Exporter.Write(req.FileName, []byte(req.Content))
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusCreated, panel.ExportPayload{Path: path, Format: req.Format, Bytes: len(req.Content)})
			return
		}

		format := export.FormatCSV
		if req.Format != "" {
			format, _ = export.ParseFormat(req.Format)
		}
		orgs, err := d.Service.GetAllScratchOrgsForDevHub(r.Context(), req.DevHubUsername)
		if err != nil {
			writeError(w, http.StatusBadGateway, sfcli.ErrorMessage(err))
			return
		}
		res, err := d.Exporter.ExportScratchOrgs(req.DevHubUsername, orgs, format)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, panel.ExportPayload{
			Path:   res.Path,
			Format: string(res.Format),
			Count:  res.Count,
			Bytes:  res.Bytes,
		})
	}
}

func decodeValid(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := decodeBody(w, r, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := panel.Validate(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
