package domain

// DeleteTarget identifies one record to delete on a given DevHub.
type DeleteTarget struct {
	ID             string `json:"id" validate:"required,max=255"`
	DevHubUsername string `json:"devHubUsername" validate:"required,max=255"`
}

// DeleteMethod records which deletion path succeeded for a scratch org.
type DeleteMethod string

const (
	// DeleteViaActiveScratchOrg deletes the linked ActiveScratchOrg record on the DevHub.
	DeleteViaActiveScratchOrg DeleteMethod = "activeScratchOrg"
	// DeleteViaLocalOrg asks the CLI to delete a locally authenticated scratch org.
	DeleteViaLocalOrg DeleteMethod = "localOrg"
	// DeleteViaRecord deletes a record directly (snapshots).
	DeleteViaRecord DeleteMethod = "record"
)

// DeleteFailure is one item of a batch that could not be deleted.
type DeleteFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// DeleteResult is the per-item outcome of a batch deletion. A batch with
// failures is still a completed call; callers inspect Failed.
type DeleteResult struct {
	Success []string                `json:"success"`
	Failed  []DeleteFailure         `json:"failed"`
	Methods map[string]DeleteMethod `json:"methods,omitempty"`
}

// NewDeleteResult returns an empty result with non-nil slices so it
// serializes as [] rather than null.
func NewDeleteResult() DeleteResult {
	return DeleteResult{
		Success: []string{},
		Failed:  []DeleteFailure{},
		Methods: map[string]DeleteMethod{},
	}
}

// AffectedDevHubs returns the distinct DevHub usernames of targets, in input order.
func AffectedDevHubs(targets []DeleteTarget) []string {
	seen := make(map[string]bool, len(targets))
	hubs := make([]string, 0, len(targets))
	for _, t := range targets {
		if seen[t.DevHubUsername] {
			continue
		}
		seen[t.DevHubUsername] = true
		hubs = append(hubs, t.DevHubUsername)
	}
	return hubs
}
