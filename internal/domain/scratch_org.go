package domain

// ScratchOrgRecord describes one scratch org.
//
// ID is the deletion identity (ScratchOrgInfo record id). In the coarse local
// listing it is provisionally set to OrgID; only the per-hub detail query
// returns the real record id.
type ScratchOrgRecord struct {
	ID             string `json:"id" yaml:"id"`
	Username       string `json:"username" yaml:"username"`
	OrgID          string `json:"orgId" yaml:"orgId"`
	InstanceURL    string `json:"instanceUrl" yaml:"instanceUrl"`
	Alias          string `json:"alias,omitempty" yaml:"alias,omitempty"`
	ExpirationDate string `json:"expirationDate" yaml:"expirationDate"`
	DevHubUsername string `json:"devHubUsername" yaml:"devHubUsername"`
	Status         string `json:"status" yaml:"status"`
	CreatedDate    string `json:"createdDate" yaml:"createdDate"`
	Edition        string `json:"edition,omitempty" yaml:"edition,omitempty"`
	SignupUsername string `json:"signupUsername,omitempty" yaml:"signupUsername,omitempty"`
	CreatedBy      string `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	DurationDays   int    `json:"durationDays,omitempty" yaml:"durationDays,omitempty"`
	IsExpired      bool   `json:"isExpired" yaml:"isExpired"`
}
