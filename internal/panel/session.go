package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/sflens/internal/devhub"
	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/export"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

// Core is the part of devhub.Service the panel drives.
type Core interface {
	StreamDevHubsData(ctx context.Context, cb devhub.Callbacks)
	RefreshDevHubsData(ctx context.Context, cb devhub.Callbacks)
	GetAllScratchOrgsForDevHub(ctx context.Context, devHubUsername string) ([]domain.ScratchOrgRecord, error)
	GetAllSnapshotsForDevHub(ctx context.Context, devHubUsername string) (domain.SnapshotListing, error)
	DeleteScratchOrgs(ctx context.Context, targets []domain.DeleteTarget) domain.DeleteResult
	DeleteSnapshots(ctx context.Context, targets []domain.DeleteTarget) domain.DeleteResult
}

// Exporter writes export files.
type Exporter interface {
	ExportScratchOrgs(devHubUsername string, orgs []domain.ScratchOrgRecord, f export.Format) (export.Result, error)
	Write(fileName string, content []byte) (string, error)
}

// Sink delivers outbound messages to the panel.
type Sink interface {
	Send(msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg Message) error

func (f SinkFunc) Send(msg Message) error { return f(msg) }

// ErrUnknownCommand is returned for an inbound command nobody handles.
var ErrUnknownCommand = errors.New("unknown command")

// Session is one connected panel. Outbound messages are serialized, so a
// Sink never sees two concurrent Send calls.
type Session struct {
	id       string
	core     Core
	exporter Exporter
	logger   logger.Logger

	mu   sync.Mutex
	sink Sink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession binds a sink to the core. Close releases it.
func NewSession(core Core, exp Exporter, sink Sink, log logger.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Session{
		id:       id,
		core:     core,
		exporter: exp,
		logger:   logger.With(logger.Named(log, "panel"), logger.String("session", id)),
		sink:     sink,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID is the session's uuid.
func (s *Session) ID() string { return s.id }

// Open announces the session to the panel.
func (s *Session) Open() error {
	sessionsActive.Inc()
	return s.send(CmdSessionCreated, SessionPayload{SessionID: s.id})
}

// Close cancels in-flight commands and waits for them.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
	sessionsActive.Dec()
}

// Go handles raw in the background. Protocol errors are reported to the
// panel rather than returned.
func (s *Session) Go(raw []byte) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Handle(s.ctx, raw); err != nil {
			s.logger.Warn("panel command rejected", logger.Error(err))
			_ = s.send(CmdProtocolError, ErrorPayload{Error: err.Error()})
		}
	}()
}

// Handle decodes one inbound message and runs it to completion. The returned
// error covers decoding and validation only: operation failures are sent to
// the panel as events.
func (s *Session) Handle(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := Validate(env); err != nil {
		return err
	}
	switch env.Command {
	case CmdGetDevHubs:
		var req GetDevHubsRequest
		if err := decode(raw, &req); err != nil {
			return err
		}
		s.getDevHubs(ctx, req)

	case CmdGetScratchOrgs:
		var req HubRequest
		if err := decode(raw, &req); err != nil {
			return err
		}
		s.getScratchOrgs(ctx, req)

	case CmdGetSnapshots:
		var req HubRequest
		if err := decode(raw, &req); err != nil {
			return err
		}
		s.getSnapshots(ctx, req)

	case CmdDeleteScratchOrgs:
		var req DeleteScratchOrgsRequest
		if err := decode(raw, &req); err != nil {
			return err
		}
		s.deleteScratchOrgs(ctx, req)

	case CmdDeleteSnapshots:
		var req DeleteSnapshotsRequest
		if err := decode(raw, &req); err != nil {
			return err
		}
		s.deleteSnapshots(ctx, req)

	case CmdExportScratchOrgs:
		var req ExportRequest
		if err := decode(raw, &req); err != nil {
			return err
		}
		s.exportScratchOrgs(ctx, req)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
	commandsTotal.WithLabelValues(env.Command).Inc()
	return nil
}

func decode(raw []byte, req any) error {
	if err := json.Unmarshal(raw, req); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return Validate(req)
}

func (s *Session) getDevHubs(ctx context.Context, req GetDevHubsRequest) {
	_ = s.send(CmdDevHubsLoading, nil)

	cb := devhub.EventCallbacks(func(ev devhub.Event) {
		msg := EventMessage(ev)
		_ = s.send(msg.Command, msg.Payload)
	})

	if req.ForceRefresh {
		s.core.RefreshDevHubsData(ctx, cb)
		return
	}
	s.core.StreamDevHubsData(ctx, cb)
}

func (s *Session) getScratchOrgs(ctx context.Context, req HubRequest) {
	orgs, err := s.core.GetAllScratchOrgsForDevHub(ctx, req.DevHubUsername)
	if err != nil {
		_ = s.send(CmdScratchOrgsError, ErrorPayload{DevHubUsername: req.DevHubUsername, Error: sfcli.ErrorMessage(err)})
		return
	}
	_ = s.send(CmdScratchOrgsData, ScratchOrgsPayload{DevHubUsername: req.DevHubUsername, ScratchOrgs: nonNil(orgs)})
}

func (s *Session) getSnapshots(ctx context.Context, req HubRequest) {
	listing, err := s.core.GetAllSnapshotsForDevHub(ctx, req.DevHubUsername)
	if err != nil {
		_ = s.send(CmdSnapshotsError, ErrorPayload{DevHubUsername: req.DevHubUsername, Error: sfcli.ErrorMessage(err)})
		return
	}
	_ = s.send(CmdSnapshotsData, SnapshotsPayload{
		DevHubUsername: req.DevHubUsername,
		Snapshots:      nonNil(listing.Snapshots),
		Status:         listing.Status,
	})
}

func (s *Session) deleteScratchOrgs(ctx context.Context, req DeleteScratchOrgsRequest) {
	_ = s.send(CmdDeleteStarted, DeleteStartedPayload{Count: len(req.ScratchOrgs)})
	res := s.core.DeleteScratchOrgs(ctx, req.ScratchOrgs)
	_ = s.send(CmdDeleteCompleted, res)
}

func (s *Session) deleteSnapshots(ctx context.Context, req DeleteSnapshotsRequest) {
	_ = s.send(CmdSnapshotsDeleteStarted, DeleteStartedPayload{Count: len(req.Snapshots)})
	res := s.core.DeleteSnapshots(ctx, req.Snapshots)
	_ = s.send(CmdSnapshotsDeleteCompleted, res)
}

func (s *Session) exportScratchOrgs(ctx context.Context, req ExportRequest) {
	if req.Content != "" {
		path, err := s.exporter.Write(req.FileName, []byte(req.Content))
		if err != nil {
			_ = s.send(CmdExportFailed, ErrorPayload{DevHubUsername: req.DevHubUsername, Error: err.Error()})
			return
		}
		_ = s.send(CmdExportCompleted, ExportPayload{Path: path, Format: req.Format, Bytes: len(req.Content)})
		return
	}

	format := export.FormatCSV
	if req.Format != "" {
		format, _ = export.ParseFormat(req.Format)
	}

	orgs, err := s.core.GetAllScratchOrgsForDevHub(ctx, req.DevHubUsername)
	if err != nil {
		_ = s.send(CmdExportFailed, ErrorPayload{DevHubUsername: req.DevHubUsername, Error: sfcli.ErrorMessage(err)})
		return
	}
	res, err := s.exporter.ExportScratchOrgs(req.DevHubUsername, orgs, format)
	if err != nil {
		_ = s.send(CmdExportFailed, ErrorPayload{DevHubUsername: req.DevHubUsername, Error: err.Error()})
		return
	}
	_ = s.send(CmdExportCompleted, ExportPayload{
		Path:   res.Path,
		Format: string(res.Format),
		Count:  res.Count,
		Bytes:  res.Bytes,
	})
}

func (s *Session) send(command string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messagesSentTotal.WithLabelValues(command).Inc()
	if err := s.sink.Send(Message{Command: command, Payload: payload}); err != nil {
		s.logger.Debug("panel message dropped",
			logger.String("command", command),
			logger.Error(err))
		return err
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
