package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
)

// OrgsReader serves the org list, from the persisted snapshot when one exists.
type OrgsReader interface {
	GetAuthorizedOrgs(ctx context.Context, forceRefresh bool) (domain.AuthorizedOrgs, error)
}

// Warmer loads the org list into memory on startup, so the first panel
// request is answered without waiting for the CLI
type Warmer struct {
	service OrgsReader
	logger  logger.Logger
}

// NewWarmer creates a new warmer
func NewWarmer(service OrgsReader, log logger.Logger) *Warmer {
	return &Warmer{
		service: service,
		logger:  log,
	}
}

// Warm serves the persisted snapshot if any (a stale one schedules a
// background refresh), otherwise fetches from the CLI.
func (w *Warmer) Warm(ctx context.Context) error {
	w.logger.Info("warming org list")

	orgs, err := w.service.GetAuthorizedOrgs(ctx, false)
	if err != nil {
		return err
	}

	w.logger.Info("org list warm",
		logger.Int("devhubs", len(orgs.DevHubs)),
		logger.Int("scratch_orgs", len(orgs.ScratchOrgs)),
		logger.Int("other_orgs", len(orgs.OtherOrgs)))
	return nil
}
