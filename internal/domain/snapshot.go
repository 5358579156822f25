package domain

// SnapshotRecord is one OrgSnapshot row of a DevHub.
type SnapshotRecord struct {
	ID                      string `json:"id"`
	OwnerName               string `json:"ownerName"`
	IsDeleted               bool   `json:"isDeleted"`
	CreatedDate             string `json:"createdDate"`
	SnapshotName            string `json:"snapshotName"`
	SourceOrg               string `json:"sourceOrg"`
	Content                 string `json:"content"`
	Status                  string `json:"status"`
	Provider                string `json:"provider"`
	ProviderSnapshot        string `json:"providerSnapshot"`
	Error                   string `json:"error"`
	ProviderSnapshotVersion string `json:"providerSnapshotVersion"`
	ExpirationDate          string `json:"expirationDate"`
	Description             string `json:"description"`
}

// SnapshotListing is the per-hub snapshot listing together with feature status.
type SnapshotListing struct {
	Snapshots []SnapshotRecord `json:"snapshots"`
	Status    SnapshotsStatus  `json:"status"`
}
