package devhub

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli/sfclitest"
)

func TestGetOrgEdition(t *testing.T) {
	r := sfclitest.New().OnJSON(editionCmd(hubA), editionJSON("Enterprise Edition"))
	s, clock := newTestService(t, r, Options{})
	ctx := context.Background()

	assert.Equal(t, "Enterprise Edition", s.GetOrgEdition(ctx, hubA))
	clock.Advance(299 * time.Second)
	assert.Equal(t, "Enterprise Edition", s.GetOrgEdition(ctx, hubA))
	assert.Equal(t, 1, r.Count(editionCmd(hubA)))

	clock.Advance(2 * time.Second)
	s.GetOrgEdition(ctx, hubA)
	assert.Equal(t, 2, r.Count(editionCmd(hubA)))
}

func TestGetOrgEditionFailureIsCached(t *testing.T) {
	r := sfclitest.New().OnError(editionCmd(hubA), "INVALID_SESSION_ID: Session expired")
	s, _ := newTestService(t, r, Options{})
	ctx := context.Background()

	assert.Equal(t, "", s.GetOrgEdition(ctx, hubA))
	assert.Equal(t, "", s.GetOrgEdition(ctx, hubA))
	assert.Equal(t, 1, r.Count(editionCmd(hubA)))
}

func TestGetDevHubLimitsArithmetic(t *testing.T) {
	r := sfclitest.New().OnJSON(limitsCmd(hubA), limitsJSON(40, 35, 80, 75))
	s, _ := newTestService(t, r, Options{})

	got := s.GetDevHubLimits(context.Background(), hubA, false)
	assert.Equal(t, domain.ScratchOrgLimits{
		ActiveScratchOrgs:    5,
		MaxActiveScratchOrgs: 40,
		DailyScratchOrgs:     5,
		MaxDailyScratchOrgs:  80,
	}, got)
}

func TestGetDevHubLimitsTTLAndForce(t *testing.T) {
	r := sfclitest.New().OnJSON(limitsCmd(hubA), limitsJSON(40, 35, 80, 75))
	s, clock := newTestService(t, r, Options{})
	ctx := context.Background()

	s.GetDevHubLimits(ctx, hubA, false)
	clock.Advance(20 * time.Second)
	s.GetDevHubLimits(ctx, hubA, false)
	assert.Equal(t, 1, r.Count(limitsCmd(hubA)))

	s.GetDevHubLimits(ctx, hubA, true)
	assert.Equal(t, 2, r.Count(limitsCmd(hubA)))

	clock.Advance(31 * time.Second)
	s.GetDevHubLimits(ctx, hubA, false)
	assert.Equal(t, 3, r.Count(limitsCmd(hubA)))
}

func TestGetDevHubLimitsFallbackNotCached(t *testing.T) {
	r := sfclitest.New().OnError(limitsCmd(hubA), "ERROR running org list limits")
	s, _ := newTestService(t, r, Options{})
	ctx := context.Background()

	assert.Equal(t, domain.ScratchOrgLimits{}, s.GetDevHubLimits(ctx, hubA, false))
	assert.Equal(t, domain.ScratchOrgLimits{}, s.GetDevHubLimits(ctx, hubA, false))
	assert.Equal(t, 2, r.Count(limitsCmd(hubA)))

	_, err := s.fetchDevHubLimits(ctx, hubA, false)
	assert.Error(t, err)
}

func TestGetDevHubLimitsRejectsFlagLikeUsername(t *testing.T) {
	r := sfclitest.New()
	s, _ := newTestService(t, r, Options{})

	assert.Equal(t, domain.ScratchOrgLimits{}, s.GetDevHubLimits(context.Background(), "--json", false))
	assert.Empty(t, r.Calls())
}

func TestGetSnapshotsInfo(t *testing.T) {
	r := sfclitest.New()
	r.OnJSON(activeCountCmd(hubA), countJSON(3))
	r.OnJSON(totalCountCmd(hubA), countJSON(10))
	s, _ := newTestService(t, r, Options{})

	info := s.GetSnapshotsInfo(context.Background(), hubA, false)
	assert.Equal(t, domain.SnapshotsInfo{Status: domain.SnapshotsAvailable, ActiveCount: 3, TotalCount: 10}, info)
}

func TestGetSnapshotsInfoUnavailableIsCached(t *testing.T) {
	r := sfclitest.New().OnError(activeCountCmd(hubA),
		"INVALID_TYPE: sObject type 'OrgSnapshot' is not supported.")
	s, _ := newTestService(t, r, Options{})
	ctx := context.Background()

	want := domain.SnapshotsInfo{Status: domain.SnapshotsUnavailable}
	assert.Equal(t, want, s.GetSnapshotsInfo(ctx, hubA, false))
	assert.Equal(t, want, s.GetSnapshotsInfo(ctx, hubA, false))

	assert.Equal(t, 1, r.Count(activeCountCmd(hubA)))
	assert.Zero(t, r.Count(totalCountCmd(hubA)))
}

func TestGetSnapshotsInfoLogsDistinguishFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	r := sfclitest.New()
	r.OnError(activeCountCmd(hubA), "insufficient access rights on object id")
	r.OnError(activeCountCmd(hubB), "socket hang up")

	s := New(r, Options{}, log)
	t.Cleanup(s.Close)
	ctx := context.Background()

	assert.Equal(t, domain.SnapshotsUnavailable, s.GetSnapshotsInfo(ctx, hubA, false).Status)
	assert.Equal(t, domain.SnapshotsUnavailable, s.GetSnapshotsInfo(ctx, hubB, false).Status)

	expected := logs.FilterMessage("snapshots not available for dev hub").All()
	require.Len(t, expected, 1)
	assert.Equal(t, zapcore.WarnLevel, expected[0].Level)

	unexpected := logs.FilterMessage("failed to fetch snapshots").All()
	require.Len(t, unexpected, 1)
	assert.Equal(t, zapcore.ErrorLevel, unexpected[0].Level)
}

func TestIsUnavailableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("sObject type 'OrgSnapshot' is not supported"), true},
		{errors.New("INSUFFICIENT_ACCESS_OR_READONLY"), true},
		{errors.New("you are not authorized to do that"), true},
		{fmt.Errorf("wrapped: %w", ErrFeatureUnavailable), true},
		{errors.New("ECONNRESET"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUnavailableError(tt.err), "%v", tt.err)
	}
}

func TestGetAllScratchOrgsForDevHub(t *testing.T) {
	r := sfclitest.New()
	r.OnJSON(scratchOrgsCmd(hubA), map[string]any{
		"status": 0,
		"result": map[string]any{
			"totalSize": 1,
			"records": []map[string]any{{
				"Id": "2SR000000000001", "OrgName": "feature-x", "SignupUsername": "test-1@example.com",
				"Edition": "Developer", "Status": "Active", "DurationDays": 7,
				"ExpirationDate": "2026-10-20", "CreatedDate": "2026-10-13T10:00:00.000+0000",
				"CreatedBy": map[string]any{"Name": "Ada"}, "ScratchOrg": "00D000000000009",
			}},
		},
	})
	r.OnError(scratchOrgsCmd(hubB), "INVALID_SESSION_ID")
	s, _ := newTestService(t, r, Options{})
	ctx := context.Background()

	orgs, err := s.GetAllScratchOrgsForDevHub(ctx, hubA)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "2SR000000000001", orgs[0].ID)
	assert.Equal(t, hubA, orgs[0].DevHubUsername)
	assert.False(t, orgs[0].IsExpired)

	_, err = s.GetAllScratchOrgsForDevHub(ctx, hubB)
	assert.Error(t, err)
}

func TestGetAllSnapshotsForDevHub(t *testing.T) {
	r := sfclitest.New()
	r.OnJSON(snapshotsCmd(hubA), map[string]any{
		"status": 0,
		"result": map[string]any{
			"totalSize": 1,
			"records":   []map[string]any{{"Id": "0Oo000000000001", "Owner": map[string]any{"Name": "Ada"}, "Status": "Active"}},
		},
	})
	r.OnError(snapshotsCmd(hubB), "sObject type 'OrgSnapshot' is not supported.")
	r.OnError(snapshotsCmd(hubC), "socket hang up")
	s, _ := newTestService(t, r, Options{})
	ctx := context.Background()

	listing, err := s.GetAllSnapshotsForDevHub(ctx, hubA)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotsAvailable, listing.Status)
	assert.Len(t, listing.Snapshots, 1)

	listing, err = s.GetAllSnapshotsForDevHub(ctx, hubB)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotsUnavailable, listing.Status)
	assert.NotNil(t, listing.Snapshots)
	assert.Empty(t, listing.Snapshots)

	_, err = s.GetAllSnapshotsForDevHub(ctx, hubC)
	assert.Error(t, err)
}

func TestCancelledLookupsAreNotCached(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	r := sfclitest.New()
	r.On(editionCmd(hubA), sfclitest.Response{Output: mustJSON(t, editionJSON("Developer Edition")), Gate: gate})
	r.On(activeCountCmd(hubA), sfclitest.Response{Output: mustJSON(t, countJSON(2)), Gate: gate})
	s, _ := newTestService(t, r, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	assert.Equal(t, "", s.GetOrgEdition(ctx, hubA))
	assert.Equal(t, domain.UnavailableSnapshots(), s.GetSnapshotsInfo(ctx, hubA, false))

	r.OnJSON(editionCmd(hubA), editionJSON("Developer Edition"))
	r.OnJSON(activeCountCmd(hubA), countJSON(2))
	r.OnJSON(totalCountCmd(hubA), countJSON(5))

	bg := context.Background()
	assert.Equal(t, "Developer Edition", s.GetOrgEdition(bg, hubA))
	assert.Equal(t, domain.SnapshotsInfo{Status: domain.SnapshotsAvailable, ActiveCount: 2, TotalCount: 5},
		s.GetSnapshotsInfo(bg, hubA, false))
	assert.Equal(t, 2, r.Count(editionCmd(hubA)))
	assert.Equal(t, 2, r.Count(activeCountCmd(hubA)))
}
