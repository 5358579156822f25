package salesforce

// Raw shapes of the `sf ... --json` documents. Only the fields the mapper
// reads are declared.

// OrgListResponse is the output of `sf org list --json`.
type OrgListResponse struct {
	Result struct {
		DevHubs        []RawOrg        `json:"devHubs"`
		ScratchOrgs    []RawScratchOrg `json:"scratchOrgs"`
		NonScratchOrgs []RawOrg        `json:"nonScratchOrgs"`
	} `json:"result"`
}

// RawOrg is an entry of the devHubs and nonScratchOrgs collections.
type RawOrg struct {
	Username        string `json:"username"`
	OrgID           string `json:"orgId"`
	InstanceURL     string `json:"instanceUrl"`
	Alias           string `json:"alias"`
	IsDevHub        bool   `json:"isDevHub"`
	ConnectedStatus string `json:"connectedStatus"`
}

// RawScratchOrg is an entry of the local scratchOrgs collection.
type RawScratchOrg struct {
	Username       string `json:"username"`
	OrgID          string `json:"orgId"`
	InstanceURL    string `json:"instanceUrl"`
	Alias          string `json:"alias"`
	ExpirationDate string `json:"expirationDate"`
	DevHubUsername string `json:"devHubUsername"`
	Status         string `json:"status"`
	CreatedDate    string `json:"createdDate"`
	Edition        string `json:"edition"`
	IsExpired      bool   `json:"isExpired"`
	SignupUsername string `json:"signupUsername"`
}

// LimitsResponse is the output of `sf org list limits --json`.
type LimitsResponse struct {
	Result []RawLimit `json:"result"`
}

// RawLimit is one named API limit.
type RawLimit struct {
	Name      string `json:"name"`
	Max       int    `json:"max"`
	Remaining int    `json:"remaining"`
}

// QueryResponse is the output of `sf data query --json` for records of type R.
type QueryResponse[R any] struct {
	Result struct {
		Records   []R `json:"records"`
		TotalSize int `json:"totalSize"`
	} `json:"result"`
}

// OrganizationRow is a row of SELECT OrganizationType FROM Organization.
type OrganizationRow struct {
	OrganizationType string `json:"OrganizationType"`
}

// CountRow is a row of a SELECT COUNT(Id) aggregate query.
type CountRow struct {
	Expr0 int `json:"expr0"`
}

// ScratchOrgInfoRow is a row of the per-hub ScratchOrgInfo query.
type ScratchOrgInfoRow struct {
	ID             string `json:"Id"`
	OrgName        string `json:"OrgName"`
	SignupUsername string `json:"SignupUsername"`
	SignupEmail    string `json:"SignupEmail"`
	Edition        string `json:"Edition"`
	Status         string `json:"Status"`
	DurationDays   int    `json:"DurationDays"`
	ExpirationDate string `json:"ExpirationDate"`
	CreatedDate    string `json:"CreatedDate"`
	CreatedBy      *struct {
		Name     string `json:"Name"`
		Username string `json:"Username"`
	} `json:"CreatedBy"`
	ScratchOrg string `json:"ScratchOrg"`
}

// ActiveScratchOrgRow is a row of the ActiveScratchOrg lookup.
type ActiveScratchOrgRow struct {
	ID string `json:"Id"`
}

// OrgSnapshotRow is a row of the per-hub OrgSnapshot query. The owner name
// comes back either nested or as a flattened "Owner.Name" key.
type OrgSnapshotRow struct {
	ID    string `json:"Id"`
	Owner *struct {
		Name string `json:"Name"`
	} `json:"Owner"`
	OwnerName               string `json:"Owner.Name"`
	IsDeleted               bool   `json:"IsDeleted"`
	CreatedDate             string `json:"CreatedDate"`
	SnapshotName            string `json:"SnapshotName"`
	SourceOrg               string `json:"SourceOrg"`
	Content                 string `json:"Content"`
	Status                  string `json:"Status"`
	Provider                string `json:"Provider"`
	ProviderSnapshot        string `json:"ProviderSnapshot"`
	Error                   string `json:"Error"`
	ProviderSnapshotVersion string `json:"ProviderSnapshotVersion"`
	ExpirationDate          string `json:"ExpirationDate"`
	Description             string `json:"Description"`
}

// DeleteResponse is the output of the delete commands.
type DeleteResponse struct {
	Result struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	} `json:"result"`
}
