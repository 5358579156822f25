package salesforce

import (
	"fmt"

	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

// SOQL used against DevHubs.
const (
	EditionQuery = "SELECT OrganizationType FROM Organization LIMIT 1"

	ActiveSnapshotsCountQuery = "SELECT COUNT(Id) FROM OrgSnapshot WHERE Status = 'Active'"
	TotalSnapshotsCountQuery  = "SELECT COUNT(Id) FROM OrgSnapshot"

	ScratchOrgsQuery = "SELECT Id, OrgName, SignupUsername, SignupEmail, Edition, Status, DurationDays, " +
		"ExpirationDate, CreatedDate, CreatedBy.Name, CreatedBy.Username, ScratchOrg " +
		"FROM ScratchOrgInfo WHERE Status != 'Deleted' ORDER BY CreatedDate DESC"

	SnapshotsQuery = "SELECT Id, Owner.Name, IsDeleted, CreatedDate, SnapshotName, SourceOrg, Content, " +
		"Status, Provider, ProviderSnapshot, Error, ProviderSnapshotVersion, ExpirationDate, Description " +
		"FROM OrgSnapshot ORDER BY CreatedDate DESC"
)

// Sobjects deleted by the mutation operations.
const (
	SObjectActiveScratchOrg = "ActiveScratchOrg"
	SObjectOrgSnapshot      = "OrgSnapshot"
)

// ActiveScratchOrgQuery finds the ActiveScratchOrg linked to a ScratchOrgInfo
// id or scratch org id. id must be a Salesforce record id.
func ActiveScratchOrgQuery(id string) (string, error) {
	if !sfcli.IsRecordID(id) {
		return "", fmt.Errorf("%q is not a salesforce record id", id)
	}
	lit := sfcli.QuoteLiteral(id)
	return "SELECT Id FROM ActiveScratchOrg WHERE ScratchOrgInfoId = " + lit + " OR ScratchOrg = " + lit, nil
}
