package salesforce

import (
	"time"

	"github.com/MrSnakeDoc/sflens/internal/domain"
)

// Limit names read from `sf org list limits`.
const (
	LimitActiveScratchOrgs = "ActiveScratchOrgs"
	LimitDailyScratchOrgs  = "DailyScratchOrgs"
)

// Mapper converts raw CLI documents into domain records.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper using the wall clock.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// SetClock overrides the clock used for expiry checks.
func (m *Mapper) SetClock(now func() time.Time) {
	m.now = now
}

// MapAuthorizedOrgs builds the aggregate org list.
//
// DevHubs are collected from both the devHubs collection and nonScratchOrgs
// entries flagged isDevHub, keyed by username. The first record seen for a
// username wins, later ones only contribute aliases.
func (m *Mapper) MapAuthorizedOrgs(resp OrgListResponse) domain.AuthorizedOrgs {
	hubs := make([]domain.OrgRecord, 0, len(resp.Result.DevHubs))
	byUsername := make(map[string]int)

	addHub := func(raw RawOrg) {
		if i, ok := byUsername[raw.Username]; ok {
			hubs[i].AddAlias(raw.Alias)
			return
		}
		rec := mapOrg(raw)
		rec.IsDevHub = true
		byUsername[raw.Username] = len(hubs)
		hubs = append(hubs, rec)
	}

	for _, raw := range resp.Result.DevHubs {
		addHub(raw)
	}

	others := make([]domain.OrgRecord, 0)
	for _, raw := range resp.Result.NonScratchOrgs {
		if raw.IsDevHub {
			addHub(raw)
			continue
		}
		others = append(others, mapOrg(raw))
	}

	scratch := make([]domain.ScratchOrgRecord, 0, len(resp.Result.ScratchOrgs))
	for _, raw := range resp.Result.ScratchOrgs {
		scratch = append(scratch, domain.ScratchOrgRecord{
			ID:             raw.OrgID, // provisional; the per-hub query returns the record id
			Username:       raw.Username,
			OrgID:          raw.OrgID,
			InstanceURL:    raw.InstanceURL,
			Alias:          raw.Alias,
			ExpirationDate: raw.ExpirationDate,
			DevHubUsername: raw.DevHubUsername,
			Status:         raw.Status,
			CreatedDate:    raw.CreatedDate,
			Edition:        raw.Edition,
			SignupUsername: raw.SignupUsername,
			IsExpired:      raw.IsExpired,
		})
	}

	return domain.AuthorizedOrgs{DevHubs: hubs, ScratchOrgs: scratch, OtherOrgs: others}
}

func mapOrg(raw RawOrg) domain.OrgRecord {
	rec := domain.OrgRecord{
		Username:        raw.Username,
		OrgID:           raw.OrgID,
		InstanceURL:     raw.InstanceURL,
		Aliases:         []string{},
		IsDevHub:        raw.IsDevHub,
		ConnectedStatus: raw.ConnectedStatus,
		OrgType:         domain.ClassifyOrgType(raw.InstanceURL),
	}
	rec.AddAlias(raw.Alias)
	return rec
}

// MapLimits extracts the scratch-org capacity. Used = max - remaining;
// a missing category stays zero.
func (m *Mapper) MapLimits(resp LimitsResponse) domain.ScratchOrgLimits {
	var limits domain.ScratchOrgLimits
	for _, l := range resp.Result {
		switch l.Name {
		case LimitActiveScratchOrgs:
			limits.MaxActiveScratchOrgs = l.Max
			limits.ActiveScratchOrgs = used(l)
		case LimitDailyScratchOrgs:
			limits.MaxDailyScratchOrgs = l.Max
			limits.DailyScratchOrgs = used(l)
		}
	}
	return limits
}

func used(l RawLimit) int {
	if n := l.Max - l.Remaining; n > 0 {
		return n
	}
	return 0
}

// MapEdition returns the organization type of the first row, or "".
func (m *Mapper) MapEdition(resp QueryResponse[OrganizationRow]) string {
	if len(resp.Result.Records) == 0 {
		return ""
	}
	return resp.Result.Records[0].OrganizationType
}

// MapCount returns expr0 of the first row of an aggregate query.
func (m *Mapper) MapCount(resp QueryResponse[CountRow]) int {
	if len(resp.Result.Records) == 0 {
		return 0
	}
	return resp.Result.Records[0].Expr0
}

// MapScratchOrgs maps the per-hub ScratchOrgInfo rows, keeping query order.
func (m *Mapper) MapScratchOrgs(devHubUsername string, resp QueryResponse[ScratchOrgInfoRow]) []domain.ScratchOrgRecord {
	now := m.now()
	out := make([]domain.ScratchOrgRecord, 0, len(resp.Result.Records))
	for _, row := range resp.Result.Records {
		orgID := row.ScratchOrg
		if orgID == "" {
			orgID = row.ID
		}
		var createdBy string
		if row.CreatedBy != nil {
			createdBy = row.CreatedBy.Name
			if createdBy == "" {
				createdBy = row.CreatedBy.Username
			}
		}
		out = append(out, domain.ScratchOrgRecord{
			ID:             row.ID,
			Username:       row.SignupUsername,
			OrgID:          orgID,
			Alias:          row.OrgName,
			ExpirationDate: row.ExpirationDate,
			DevHubUsername: devHubUsername,
			Status:         row.Status,
			CreatedDate:    row.CreatedDate,
			Edition:        row.Edition,
			SignupUsername: row.SignupUsername,
			CreatedBy:      createdBy,
			DurationDays:   row.DurationDays,
			IsExpired:      isExpired(row.ExpirationDate, now),
		})
	}
	return out
}

// MapSnapshots maps the per-hub OrgSnapshot rows.
func (m *Mapper) MapSnapshots(resp QueryResponse[OrgSnapshotRow]) []domain.SnapshotRecord {
	out := make([]domain.SnapshotRecord, 0, len(resp.Result.Records))
	for _, row := range resp.Result.Records {
		owner := row.OwnerName
		if row.Owner != nil && row.Owner.Name != "" {
			owner = row.Owner.Name
		}
		if owner == "" {
			owner = "Unknown"
		}
		out = append(out, domain.SnapshotRecord{
			ID:                      row.ID,
			OwnerName:               owner,
			IsDeleted:               row.IsDeleted,
			CreatedDate:             row.CreatedDate,
			SnapshotName:            row.SnapshotName,
			SourceOrg:               row.SourceOrg,
			Content:                 row.Content,
			Status:                  row.Status,
			Provider:                row.Provider,
			ProviderSnapshot:        row.ProviderSnapshot,
			Error:                   row.Error,
			ProviderSnapshotVersion: row.ProviderSnapshotVersion,
			ExpirationDate:          row.ExpirationDate,
			Description:             row.Description,
		})
	}
	return out
}

// Salesforce returns dates (2024-01-31) and datetimes (2024-01-31T10:00:00.000+0000).
var expiryLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02",
}

// isExpired reports whether expiration is before now. Unparseable dates are
// never expired.
func isExpired(expiration string, now time.Time) bool {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, expiration); err == nil {
			return t.Before(now)
		}
	}
	return false
}
