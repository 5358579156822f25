package panel

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/sflens/internal/devhub"
	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/export"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

// Inbound commands (panel → core).
const (
	CmdGetDevHubs        = "getDevHubs"
	CmdGetScratchOrgs    = "getScratchOrgs"
	CmdGetSnapshots      = "getSnapshots"
	CmdDeleteScratchOrgs = "deleteScratchOrgs"
	CmdDeleteSnapshots   = "deleteSnapshots"
	CmdExportScratchOrgs = "exportScratchOrgs"
)

// Outbound commands (core → panel).
const (
	CmdSessionCreated            = "sessionCreated"
	CmdDevHubsLoading            = "devHubsLoading"
	CmdDevHubsData               = "devHubsData"
	CmdDevHubEditionLoaded       = "devHubEditionLoaded"
	CmdDevHubLimitsLoaded        = "devHubLimitsLoaded"
	CmdDevHubSnapshotsInfoLoaded = "devHubSnapshotsInfoLoaded"
	CmdLoadingComplete           = "loadingComplete"
	CmdDevHubsError              = "devHubsError"
	CmdScratchOrgsData           = "scratchOrgsData"
	CmdScratchOrgsError          = "scratchOrgsError"
	CmdSnapshotsData             = "snapshotsData"
	CmdSnapshotsError            = "snapshotsError"
	CmdDeleteStarted             = "deleteStarted"
	CmdDeleteCompleted           = "deleteCompleted"
	CmdSnapshotsDeleteStarted    = "snapshotsDeleteStarted"
	CmdSnapshotsDeleteCompleted  = "snapshotsDeleteCompleted"
	CmdExportCompleted           = "exportCompleted"
	CmdExportFailed              = "exportFailed"
	CmdProtocolError             = "protocolError"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("exportformat", func(fl validator.FieldLevel) bool {
		_, err := export.ParseFormat(fl.Field().String())
		return err == nil
	})
}

// envelope is the part every inbound message shares.
type envelope struct {
	Command string `json:"command" validate:"required"`
}

// GetDevHubsRequest asks for the DevHub stream.
type GetDevHubsRequest struct {
	ForceRefresh bool `json:"forceRefresh"`
}

// HubRequest targets one DevHub (getScratchOrgs, getSnapshots).
type HubRequest struct {
	DevHubUsername string `json:"devHubUsername" validate:"required,max=255"`
}

// DeleteScratchOrgsRequest is the deleteScratchOrgs payload.
type DeleteScratchOrgsRequest struct {
	ScratchOrgs []domain.DeleteTarget `json:"scratchOrgs" validate:"required,min=1,max=200,dive"`
}

// DeleteSnapshotsRequest is the deleteSnapshots payload.
type DeleteSnapshotsRequest struct {
	Snapshots []domain.DeleteTarget `json:"snapshots" validate:"required,min=1,max=200,dive"`
}

// ExportRequest is the exportScratchOrgs payload. With Content set the
// panel has rendered the file itself and only FileName/Content are used.
type ExportRequest struct {
	DevHubUsername string `json:"devHubUsername" validate:"required_without=Content,max=255"`
	Format         string `json:"format" validate:"omitempty,exportformat"`
	FileName       string `json:"fileName,omitempty" validate:"required_with=Content,max=255"`
	Content        string `json:"content,omitempty"`
}

// Validate checks a decoded request against its validate tags.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// Message is one outbound event. It is encoded flat: the payload fields
// sit next to "command".
type Message struct {
	Command string
	Payload any
}

func (m Message) MarshalJSON() ([]byte, error) {
	body := map[string]json.RawMessage{}
	if m.Payload != nil {
		raw, err := json.Marshal(m.Payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("payload of %s is not an object: %w", m.Command, err)
		}
	}
	cmd, err := json.Marshal(m.Command)
	if err != nil {
		return nil, err
	}
	body["command"] = cmd
	return json.Marshal(body)
}

// Outbound payloads.
type (
	SessionPayload struct {
		SessionID string `json:"sessionId"`
	}

	DevHubsPayload struct {
		DevHubs []domain.OrgRecord `json:"devHubs"`
	}

	EditionPayload struct {
		Username string `json:"username"`
		Edition  string `json:"edition"`
	}

	LimitsPayload struct {
		Username string                  `json:"username"`
		Limits   domain.ScratchOrgLimits `json:"limits"`
		Error    string                  `json:"error,omitempty"`
	}

	SnapshotsInfoPayload struct {
		Username      string               `json:"username"`
		SnapshotsInfo domain.SnapshotsInfo `json:"snapshotsInfo"`
	}

	ErrorPayload struct {
		DevHubUsername string `json:"devHubUsername,omitempty"`
		Error          string `json:"error"`
	}

	ScratchOrgsPayload struct {
		DevHubUsername string                    `json:"devHubUsername"`
		ScratchOrgs    []domain.ScratchOrgRecord `json:"scratchOrgs"`
	}

	SnapshotsPayload struct {
		DevHubUsername string                  `json:"devHubUsername"`
		Snapshots      []domain.SnapshotRecord `json:"snapshots"`
		Status         domain.SnapshotsStatus  `json:"status"`
	}

	DeleteStartedPayload struct {
		Count int `json:"count"`
	}

	ExportPayload struct {
		Path   string `json:"path"`
		Format string `json:"format,omitempty"`
		Count  int    `json:"count,omitempty"`
		Bytes  int    `json:"bytes"`
	}
)

// limitsError is what the panel shows when a hub's limits could not be read.
const limitsError = "Failed to load limits"

// EventMessage maps a streamed devhub event onto the panel vocabulary.
func EventMessage(ev devhub.Event) Message {
	switch ev.Kind {
	case devhub.EventDevHubsLoaded:
		hubs := ev.DevHubs
		if hubs == nil {
			hubs = []domain.OrgRecord{}
		}
		return Message{Command: CmdDevHubsData, Payload: DevHubsPayload{DevHubs: hubs}}
	case devhub.EventEditionLoaded:
		return Message{Command: CmdDevHubEditionLoaded, Payload: EditionPayload{Username: ev.Username, Edition: ev.Edition}}
	case devhub.EventLimitsLoaded:
		p := LimitsPayload{Username: ev.Username, Limits: ev.Limits}
		if ev.LimitsFailed {
			p.Error = limitsError
		}
		return Message{Command: CmdDevHubLimitsLoaded, Payload: p}
	case devhub.EventSnapshotsInfoLoaded:
		return Message{Command: CmdDevHubSnapshotsInfoLoaded, Payload: SnapshotsInfoPayload{Username: ev.Username, SnapshotsInfo: ev.SnapshotsInfo}}
	case devhub.EventComplete:
		return Message{Command: CmdLoadingComplete}
	default:
		return Message{Command: CmdDevHubsError, Payload: ErrorPayload{Error: sfcli.ErrorMessage(ev.Err)}}
	}
}
