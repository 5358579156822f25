package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sflens/internal/devhub"
	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/panel"
)

// DevHubService is what the handlers need from devhub.Service.
type DevHubService interface {
	panel.Core
	GetAuthorizedOrgs(ctx context.Context, forceRefresh bool) (domain.AuthorizedOrgs, error)
	Stream(ctx context.Context) <-chan devhub.Event
	StreamRefresh(ctx context.Context) <-chan devhub.Event
	HasOrgs() bool
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time      // for testing, defaults to time.Now
	AllowedHosts  []string              // Host headers allowed to access the server
	AllowedCIDRS  []string              // IPs allowed to access the server
	TrustProxy    bool                  // true if running behind a trusted reverse proxy
	Service       DevHubService         // DevHub aggregation service
	Exporter      panel.Exporter        // writes scratch-org exports
	RedisClient   redis.UniversalClient // optional snapshot mirror, nil when disabled
	ReloadTrigger chan struct{}         // Channel to trigger a manual org list reload
	MutationRate  float64               // per-IP requests per second on mutating routes
	MutationBurst int
}
