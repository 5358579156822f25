package domain

// ScratchOrgLimits is the scratch-org capacity of one DevHub.
// Used counts are max minus remaining; a missing category is all zero.
type ScratchOrgLimits struct {
	ActiveScratchOrgs    int `json:"activeScratchOrgs"`
	MaxActiveScratchOrgs int `json:"maxActiveScratchOrgs"`
	DailyScratchOrgs     int `json:"dailyScratchOrgs"`
	MaxDailyScratchOrgs  int `json:"maxDailyScratchOrgs"`
}

// SnapshotsStatus tells whether org snapshots can be used on a DevHub.
type SnapshotsStatus string

const (
	SnapshotsAvailable   SnapshotsStatus = "available"
	SnapshotsUnavailable SnapshotsStatus = "unavailable"
	SnapshotsLoading     SnapshotsStatus = "loading"
)

// SnapshotsInfo carries the snapshot counters shown on a DevHub card.
// Unavailable is a regular state (feature not provisioned or no access),
// not an error.
type SnapshotsInfo struct {
	Status      SnapshotsStatus `json:"status"`
	ActiveCount int             `json:"activeCount"`
	TotalCount  int             `json:"totalCount"`
}

// UnavailableSnapshots is the durable negative result for snapshot lookups.
func UnavailableSnapshots() SnapshotsInfo {
	return SnapshotsInfo{Status: SnapshotsUnavailable}
}

// DevHubRecord is an OrgRecord enriched with its capacity figures.
type DevHubRecord struct {
	OrgRecord
	Limits        ScratchOrgLimits `json:"limits"`
	SnapshotsInfo *SnapshotsInfo   `json:"snapshotsInfo,omitempty"`
}
