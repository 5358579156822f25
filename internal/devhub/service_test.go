package devhub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/sfcli/sfclitest"
	"github.com/MrSnakeDoc/sflens/internal/sources/salesforce"
	"github.com/MrSnakeDoc/sflens/internal/store"
	"github.com/MrSnakeDoc/sflens/internal/store/file"
)

const (
	hubA = "hub-a@acme.com"
	hubB = "hub-b@acme.com"
	hubC = "hub-c@acme.com"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(t *testing.T, r sfcli.Runner, opts Options) (*Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts.Clock = clock.Now
	s := New(r, opts, logger.Nop())
	t.Cleanup(s.Close)
	return s, clock
}

func orgListJSON(hubs ...string) map[string]any {
	devHubs := make([]map[string]any, 0, len(hubs))
	for _, h := range hubs {
		devHubs = append(devHubs, map[string]any{
			"username":        h,
			"orgId":           "00D000000000001",
			"instanceUrl":     "https://acme.my.salesforce.com",
			"alias":           "alias-" + h,
			"isDevHub":        true,
			"connectedStatus": "Connected",
		})
	}
	return map[string]any{
		"status": 0,
		"result": map[string]any{
			"devHubs":        devHubs,
			"nonScratchOrgs": []any{},
			"scratchOrgs":    []any{},
		},
	}
}

func limitsJSON(activeMax, activeRemaining, dailyMax, dailyRemaining int) map[string]any {
	return map[string]any{
		"status": 0,
		"result": []map[string]any{
			{"name": "DailyApiRequests", "max": 15000, "remaining": 14990},
			{"name": "ActiveScratchOrgs", "max": activeMax, "remaining": activeRemaining},
			{"name": "DailyScratchOrgs", "max": dailyMax, "remaining": dailyRemaining},
		},
	}
}

func editionJSON(edition string) map[string]any {
	return map[string]any{
		"status": 0,
		"result": map[string]any{
			"records":   []map[string]any{{"OrganizationType": edition}},
			"totalSize": 1,
		},
	}
}

func countJSON(n int) map[string]any {
	return map[string]any{
		"status": 0,
		"result": map[string]any{
			"records":   []map[string]any{{"expr0": n}},
			"totalSize": 1,
		},
	}
}

func editionCmd(hub string) sfcli.Command { return sfcli.Query(salesforce.EditionQuery, hub) }
func limitsCmd(hub string) sfcli.Command  { return sfcli.ListLimits(hub) }
func activeCountCmd(hub string) sfcli.Command {
	return sfcli.Query(salesforce.ActiveSnapshotsCountQuery, hub)
}
func totalCountCmd(hub string) sfcli.Command {
	return sfcli.Query(salesforce.TotalSnapshotsCountQuery, hub)
}

// stubHub answers every enrichment query of hub successfully.
func stubHub(r *sfclitest.Runner, hub string) {
	r.OnJSON(editionCmd(hub), editionJSON("Developer Edition"))
	r.OnJSON(limitsCmd(hub), limitsJSON(40, 35, 80, 75))
	r.OnJSON(activeCountCmd(hub), countJSON(2))
	r.OnJSON(totalCountCmd(hub), countJSON(5))
}

func TestGetAuthorizedOrgsCachesWithinTTL(t *testing.T) {
	r := sfclitest.New().OnJSON(sfcli.ListOrgs(), orgListJSON(hubA))
	s, clock := newTestService(t, r, Options{})
	ctx := context.Background()

	orgs, err := s.GetAuthorizedOrgs(ctx, false)
	require.NoError(t, err)
	require.Len(t, orgs.DevHubs, 1)

	clock.Advance(30 * time.Second)
	_, err = s.GetAuthorizedOrgs(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count(sfcli.ListOrgs()))

	_, err = s.GetAuthorizedOrgs(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Count(sfcli.ListOrgs()))
}

func TestGetAuthorizedOrgsStaleInMemoryRevalidates(t *testing.T) {
	r := sfclitest.New().OnJSON(sfcli.ListOrgs(), orgListJSON(hubA))
	s, clock := newTestService(t, r, Options{})
	ctx := context.Background()

	_, err := s.GetAuthorizedOrgs(ctx, false)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	orgs, err := s.GetAuthorizedOrgs(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, hubA, orgs.DevHubs[0].Username, "stale data is served")

	s.Wait()
	assert.Equal(t, 2, r.Count(sfcli.ListOrgs()))

	e, ok := s.orgs.Get(orgsKey)
	require.True(t, ok)
	assert.False(t, e.IsStale)
}

func TestGetAuthorizedOrgsFailure(t *testing.T) {
	r := sfclitest.New().OnError(sfcli.ListOrgs(), "No authorization information found")
	s, _ := newTestService(t, r, Options{})

	_, err := s.GetAuthorizedOrgs(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sfcli.ErrCommandFailed))
	assert.False(t, s.HasOrgs())
}

func TestGetAuthorizedOrgsPersistsSnapshot(t *testing.T) {
	r := sfclitest.New().OnJSON(sfcli.ListOrgs(), orgListJSON(hubA, hubB))
	fs := file.New(t.TempDir(), logger.Nop())
	s, clock := newTestService(t, r, Options{Store: fs})

	_, err := s.GetAuthorizedOrgs(context.Background(), false)
	require.NoError(t, err)

	snap, ok := fs.Load(context.Background())
	require.True(t, ok)
	assert.True(t, snap.Time().Equal(clock.Now()))
	assert.Len(t, snap.Data.DevHubs, 2)
}

func TestColdStartHydrationRefreshesOnce(t *testing.T) {
	gate := make(chan struct{})
	r := sfclitest.New()
	r.On(sfcli.ListOrgs(), sfclitest.Response{Output: mustJSON(t, orgListJSON(hubA, hubB)), Gate: gate})

	fs := file.New(t.TempDir(), logger.Nop())
	s, clock := newTestService(t, r, Options{Store: fs})

	persisted := domain.AuthorizedOrgs{
		DevHubs:     []domain.OrgRecord{{Username: hubA, Aliases: []string{"old"}, IsDevHub: true}},
		ScratchOrgs: []domain.ScratchOrgRecord{},
		OtherOrgs:   []domain.OrgRecord{},
	}
	fs.Save(context.Background(), store.NewSnapshot(persisted, clock.Now().Add(-5*time.Minute)))

	done := make(chan domain.AuthorizedOrgs, 1)
	go func() {
		orgs, err := s.GetAuthorizedOrgs(context.Background(), false)
		assert.NoError(t, err)
		done <- orgs
	}()

	select {
	case orgs := <-done:
		require.Len(t, orgs.DevHubs, 1)
		assert.Equal(t, []string{"old"}, orgs.DevHubs[0].Aliases)
	case <-time.After(2 * time.Second):
		t.Fatal("GetAuthorizedOrgs waited for the CLI instead of serving the persisted snapshot")
	}

	// The cached entry keeps the persisted timestamp, so it is stale.
	e, ok := s.orgs.Get(orgsKey)
	require.True(t, ok)
	assert.True(t, e.IsStale)
	assert.True(t, s.orgs.IsRefreshing(orgsKey))

	// A second read while the refresh is in flight must not start another.
	_, err := s.GetAuthorizedOrgs(context.Background(), false)
	require.NoError(t, err)

	close(gate)
	s.Wait()

	assert.Equal(t, 1, r.Count(sfcli.ListOrgs()))
	e, ok = s.orgs.Get(orgsKey)
	require.True(t, ok)
	assert.False(t, e.IsStale)
	assert.Len(t, e.Data.DevHubs, 2)
	assert.False(t, s.orgs.IsRefreshing(orgsKey))
}

func TestBackgroundRefreshFailureAllowsRetry(t *testing.T) {
	r := sfclitest.New().OnError(sfcli.ListOrgs(), "network down")
	fs := file.New(t.TempDir(), logger.Nop())
	s, clock := newTestService(t, r, Options{Store: fs})

	fs.Save(context.Background(), store.NewSnapshot(domain.AuthorizedOrgs{
		DevHubs: []domain.OrgRecord{}, ScratchOrgs: []domain.ScratchOrgRecord{}, OtherOrgs: []domain.OrgRecord{},
	}, clock.Now().Add(-time.Hour)))

	_, err := s.GetAuthorizedOrgs(context.Background(), false)
	require.NoError(t, err)
	s.Wait()
	assert.False(t, s.orgs.IsRefreshing(orgsKey))

	_, err = s.GetAuthorizedOrgs(context.Background(), false)
	require.NoError(t, err)
	s.Wait()
	assert.Equal(t, 2, r.Count(sfcli.ListOrgs()))
}

func TestInvalidateCacheKeepsEditions(t *testing.T) {
	r := sfclitest.New().OnJSON(sfcli.ListOrgs(), orgListJSON(hubA))
	stubHub(r, hubA)
	s, _ := newTestService(t, r, Options{})
	ctx := context.Background()

	_, err := s.GetAuthorizedOrgs(ctx, false)
	require.NoError(t, err)
	s.GetOrgEdition(ctx, hubA)
	s.GetDevHubLimits(ctx, hubA, false)
	s.GetSnapshotsInfo(ctx, hubA, false)

	s.InvalidateCache()

	assert.False(t, s.HasOrgs())
	assert.Zero(t, s.limits.Len())
	assert.Zero(t, s.snapshotsInfo.Len())
	assert.Equal(t, 1, s.editions.Len())
}

func TestPruneHubCaches(t *testing.T) {
	r := sfclitest.New().OnJSON(sfcli.ListOrgs(), orgListJSON(hubA))
	stubHub(r, hubA)
	stubHub(r, hubB)
	s, _ := newTestService(t, r, Options{})
	ctx := context.Background()

	for _, hub := range []string{hubA, hubB} {
		s.GetOrgEdition(ctx, hub)
		s.GetDevHubLimits(ctx, hub, false)
	}
	assert.Zero(t, s.PruneHubCaches(), "nothing to prune without an org list")

	_, err := s.GetAuthorizedOrgs(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, s.PruneHubCaches())
	assert.Equal(t, []string{hubA}, s.limits.Keys())
	assert.Equal(t, []string{hubA}, s.editions.Keys())
}

func TestGetDevHubsWithEditionAndLimits(t *testing.T) {
	r := sfclitest.New().OnJSON(sfcli.ListOrgs(), orgListJSON(hubA, hubB))
	stubHub(r, hubA)
	r.OnError(editionCmd(hubB), "INVALID_SESSION_ID")
	r.OnError(limitsCmd(hubB), "INVALID_SESSION_ID")
	s, _ := newTestService(t, r, Options{FanOutLimit: 1})
	ctx := context.Background()

	withEdition, err := s.GetDevHubsWithEdition(ctx)
	require.NoError(t, err)
	require.Len(t, withEdition, 2)
	assert.Equal(t, "Developer Edition", withEdition[0].Edition)
	assert.Equal(t, "", withEdition[1].Edition)

	withLimits, err := s.GetDevHubsWithLimits(ctx)
	require.NoError(t, err)
	require.Len(t, withLimits, 2)
	assert.Equal(t, 5, withLimits[0].Limits.ActiveScratchOrgs)
	assert.Equal(t, domain.ScratchOrgLimits{}, withLimits[1].Limits)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func scratchOrgsCmd(hub string) sfcli.Command { return sfcli.Query(salesforce.ScratchOrgsQuery, hub) }
func snapshotsCmd(hub string) sfcli.Command   { return sfcli.Query(salesforce.SnapshotsQuery, hub) }
