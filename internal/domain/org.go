package domain

import "strings"

// OrgType is derived from an org's instance URL.
type OrgType string

const (
	OrgTypeProduction OrgType = "Production"
	OrgTypeSandbox    OrgType = "Sandbox"
	OrgTypeScratch    OrgType = "Scratch"
	OrgTypeUnknown    OrgType = "Unknown"
)

// OrgRecord represents one org the local CLI is authorized against.
//
// An OrgRecord is uniquely identified by its Username: two source records
// sharing a username describe the same org and are merged.
type OrgRecord struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Username is the merge key.
	Username string `json:"username"`

	// OrgID is the 15/18 character organization id (00D...).
	OrgID string `json:"orgId"`

	InstanceURL string `json:"instanceUrl"`

	// ─────────────────────────────
	// Local authorization
	// ─────────────────────────────

	// Aliases is an ordered set: first-seen order, no duplicates.
	Aliases []string `json:"aliases"`

	IsDevHub        bool   `json:"isDevHub"`
	ConnectedStatus string `json:"connectedStatus"`

	// ─────────────────────────────
	// Derived / enrichment
	// ─────────────────────────────

	OrgType OrgType `json:"orgType"`

	// Edition is empty until the edition lookup has resolved it.
	Edition string `json:"edition,omitempty"`
}

// AddAlias appends alias unless it is empty or already present.
// Returns true when the alias set changed.
func (o *OrgRecord) AddAlias(alias string) bool {
	if alias == "" {
		return false
	}
	for _, a := range o.Aliases {
		if a == alias {
			return false
		}
	}
	o.Aliases = append(o.Aliases, alias)
	return true
}

// ClassifyOrgType derives the org type from an instance URL.
// Sandbox markers are checked first, then scratch, then production.
// Examples:
//   - "https://mycompany--sandbox.my.salesforce.com" -> Sandbox
//   - "https://test.salesforce.com" -> Scratch
//   - "https://acme.my.salesforce.com" -> Production
func ClassifyOrgType(instanceURL string) OrgType {
	if instanceURL == "" {
		return OrgTypeUnknown
	}
	url := strings.ToLower(instanceURL)

	switch {
	case strings.Contains(url, ".sandbox."), strings.Contains(url, "--"), strings.Contains(url, ".cs"):
		return OrgTypeSandbox
	case strings.Contains(url, ".scratch."), strings.Contains(url, "test.salesforce.com"):
		return OrgTypeScratch
	case strings.Contains(url, ".my.salesforce.com"), strings.Contains(url, ".lightning.force.com"):
		return OrgTypeProduction
	default:
		return OrgTypeUnknown
	}
}

// AuthorizedOrgs is the aggregate org list: the unit cached in memory and
// persisted to disk for cold starts.
type AuthorizedOrgs struct {
	DevHubs     []OrgRecord        `json:"devHubs"`
	ScratchOrgs []ScratchOrgRecord `json:"scratchOrgs"`
	OtherOrgs   []OrgRecord        `json:"otherOrgs"`
}

// DevHubUsernames lists the usernames of every DevHub in list order.
func (a AuthorizedOrgs) DevHubUsernames() []string {
	names := make([]string, 0, len(a.DevHubs))
	for _, hub := range a.DevHubs {
		names = append(names, hub.Username)
	}
	return names
}
