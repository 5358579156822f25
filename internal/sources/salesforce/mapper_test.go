package salesforce

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/domain"
)

const orgListFixture = `{
  "status": 0,
  "result": {
    "devHubs": [
      {"username": "hub@acme.com", "orgId": "00D000000000001", "instanceUrl": "https://acme.my.salesforce.com", "alias": "hub", "isDevHub": true, "connectedStatus": "Connected"}
    ],
    "nonScratchOrgs": [
      {"username": "hub@acme.com", "orgId": "00D000000000001", "instanceUrl": "https://acme.my.salesforce.com", "alias": "prod-hub", "isDevHub": true, "connectedStatus": "Connected"},
      {"username": "hub@acme.com", "orgId": "00D000000000001", "instanceUrl": "https://acme.my.salesforce.com", "alias": "hub", "isDevHub": true, "connectedStatus": "Connected"},
      {"username": "second@acme.com", "orgId": "00D000000000002", "instanceUrl": "https://acme2.my.salesforce.com", "isDevHub": true, "connectedStatus": "Connected"},
      {"username": "qa@acme.com.qa", "orgId": "00D000000000003", "instanceUrl": "https://acme--qa.sandbox.my.salesforce.com", "alias": "qa", "isDevHub": false, "connectedStatus": "Connected"}
    ],
    "scratchOrgs": [
      {"username": "test-abc@example.com", "orgId": "00D000000000009", "instanceUrl": "https://page-fun-1234.scratch.my.salesforce.com", "alias": "feature-x", "expirationDate": "2030-01-01", "devHubUsername": "hub@acme.com", "status": "Active", "isExpired": false}
    ]
  }
}`

func TestMapAuthorizedOrgs(t *testing.T) {
	var resp OrgListResponse
	if err := json.Unmarshal([]byte(orgListFixture), &resp); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	orgs := NewMapper().MapAuthorizedOrgs(resp)

	if len(orgs.DevHubs) != 2 {
		t.Fatalf("DevHubs = %d, want 2", len(orgs.DevHubs))
	}
	hub := orgs.DevHubs[0]
	if hub.Username != "hub@acme.com" {
		t.Errorf("first hub = %q, want hub@acme.com", hub.Username)
	}
	if got, want := hub.Aliases, []string{"hub", "prod-hub"}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("aliases = %v, want %v", got, want)
	}
	if hub.OrgType != domain.OrgTypeProduction {
		t.Errorf("orgType = %v, want Production", hub.OrgType)
	}
	if !orgs.DevHubs[1].IsDevHub || len(orgs.DevHubs[1].Aliases) != 0 {
		t.Errorf("second hub = %+v, want devhub with no aliases", orgs.DevHubs[1])
	}

	if len(orgs.OtherOrgs) != 1 || orgs.OtherOrgs[0].OrgType != domain.OrgTypeSandbox {
		t.Errorf("OtherOrgs = %+v, want one sandbox", orgs.OtherOrgs)
	}

	if len(orgs.ScratchOrgs) != 1 {
		t.Fatalf("ScratchOrgs = %d, want 1", len(orgs.ScratchOrgs))
	}
	so := orgs.ScratchOrgs[0]
	if so.ID != so.OrgID {
		t.Errorf("provisional id = %q, want orgId %q", so.ID, so.OrgID)
	}
	if so.DevHubUsername != "hub@acme.com" || so.Alias != "feature-x" {
		t.Errorf("scratch org = %+v", so)
	}
}

func TestMapAuthorizedOrgsDisjointAliases(t *testing.T) {
	resp := OrgListResponse{}
	resp.Result.DevHubs = []RawOrg{{Username: "u", Alias: "a"}, {Username: "u", Alias: "b"}}
	resp.Result.NonScratchOrgs = []RawOrg{{Username: "u", Alias: "c", IsDevHub: true}, {Username: "u", Alias: "a", IsDevHub: true}}

	orgs := NewMapper().MapAuthorizedOrgs(resp)
	if len(orgs.DevHubs) != 1 {
		t.Fatalf("DevHubs = %d, want 1", len(orgs.DevHubs))
	}
	if got := len(orgs.DevHubs[0].Aliases); got != 3 {
		t.Errorf("aliases = %v, want 3 distinct", orgs.DevHubs[0].Aliases)
	}
}

func TestMapAuthorizedOrgsEmpty(t *testing.T) {
	orgs := NewMapper().MapAuthorizedOrgs(OrgListResponse{})
	if orgs.DevHubs == nil || orgs.ScratchOrgs == nil || orgs.OtherOrgs == nil {
		t.Errorf("collections must be non-nil: %+v", orgs)
	}
}

func TestMapLimits(t *testing.T) {
	tests := []struct {
		name     string
		input    []RawLimit
		expected domain.ScratchOrgLimits
	}{
		{
			name: "both categories",
			input: []RawLimit{
				{Name: "DailyApiRequests", Max: 15000, Remaining: 14000},
				{Name: "ActiveScratchOrgs", Max: 40, Remaining: 35},
				{Name: "DailyScratchOrgs", Max: 80, Remaining: 75},
			},
			expected: domain.ScratchOrgLimits{ActiveScratchOrgs: 5, MaxActiveScratchOrgs: 40, DailyScratchOrgs: 5, MaxDailyScratchOrgs: 80},
		},
		{
			name:     "missing daily",
			input:    []RawLimit{{Name: "ActiveScratchOrgs", Max: 3, Remaining: 0}},
			expected: domain.ScratchOrgLimits{ActiveScratchOrgs: 3, MaxActiveScratchOrgs: 3},
		},
		{
			name:     "none",
			input:    nil,
			expected: domain.ScratchOrgLimits{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMapper().MapLimits(LimitsResponse{Result: tt.input})
			if got != tt.expected {
				t.Errorf("MapLimits() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestMapScratchOrgs(t *testing.T) {
	raw := `{"status":0,"result":{"totalSize":2,"records":[
	  {"Id":"2SR000000000001","OrgName":"feature-x","SignupUsername":"test-1@example.com","Edition":"Developer","Status":"Active","DurationDays":7,"ExpirationDate":"2026-10-01","CreatedDate":"2026-09-24T10:00:00.000+0000","CreatedBy":{"Name":"Ada Admin","Username":"ada@acme.com"},"ScratchOrg":"00D000000000009"},
	  {"Id":"2SR000000000002","SignupUsername":"test-2@example.com","Edition":"Enterprise","Status":"Active","DurationDays":30,"ExpirationDate":"2026-11-30","CreatedDate":"2026-10-31T10:00:00.000+0000","CreatedBy":{"Name":"","Username":"bob@acme.com"}}
	]}}`
	var resp QueryResponse[ScratchOrgInfoRow]
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	m := NewMapper()
	m.SetClock(func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) })
	orgs := m.MapScratchOrgs("hub@acme.com", resp)

	if len(orgs) != 2 {
		t.Fatalf("len = %d, want 2", len(orgs))
	}
	first, second := orgs[0], orgs[1]
	if first.ID != "2SR000000000001" || first.OrgID != "00D000000000009" {
		t.Errorf("first ids = %q/%q", first.ID, first.OrgID)
	}
	if !first.IsExpired {
		t.Error("first should be expired")
	}
	if first.CreatedBy != "Ada Admin" || first.DurationDays != 7 || first.DevHubUsername != "hub@acme.com" {
		t.Errorf("first = %+v", first)
	}
	if second.OrgID != second.ID {
		t.Errorf("orgId should fall back to Id, got %q", second.OrgID)
	}
	if second.CreatedBy != "bob@acme.com" {
		t.Errorf("createdBy = %q, want username fallback", second.CreatedBy)
	}
	if second.IsExpired {
		t.Error("second should not be expired")
	}
}

func TestMapSnapshotsOwnerFallback(t *testing.T) {
	raw := `{"result":{"records":[
	  {"Id":"0Oo000000000001","Owner":{"Name":"Ada"},"SnapshotName":"base","Status":"Active"},
	  {"Id":"0Oo000000000002","Owner.Name":"Flat Owner","SnapshotName":"flat","Status":"Active"},
	  {"Id":"0Oo000000000003","SnapshotName":"orphan","Status":"Error","Error":"boom"}
	],"totalSize":3}}`
	var resp QueryResponse[OrgSnapshotRow]
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	snaps := NewMapper().MapSnapshots(resp)
	want := []string{"Ada", "Flat Owner", "Unknown"}
	for i, s := range snaps {
		if s.OwnerName != want[i] {
			t.Errorf("snapshot %d owner = %q, want %q", i, s.OwnerName, want[i])
		}
	}
	if snaps[2].Error != "boom" {
		t.Errorf("error = %q", snaps[2].Error)
	}
}

func TestMapEditionAndCount(t *testing.T) {
	m := NewMapper()

	var ed QueryResponse[OrganizationRow]
	_ = json.Unmarshal([]byte(`{"result":{"records":[{"OrganizationType":"Developer Edition"}]}}`), &ed)
	if got := m.MapEdition(ed); got != "Developer Edition" {
		t.Errorf("MapEdition() = %q", got)
	}
	if got := m.MapEdition(QueryResponse[OrganizationRow]{}); got != "" {
		t.Errorf("MapEdition(empty) = %q", got)
	}

	var cnt QueryResponse[CountRow]
	_ = json.Unmarshal([]byte(`{"result":{"records":[{"expr0":7}],"totalSize":1}}`), &cnt)
	if got := m.MapCount(cnt); got != 7 {
		t.Errorf("MapCount() = %d", got)
	}
}

func TestActiveScratchOrgQuery(t *testing.T) {
	q, err := ActiveScratchOrgQuery("2SR000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT Id FROM ActiveScratchOrg WHERE ScratchOrgInfoId = '2SR000000000001' OR ScratchOrg = '2SR000000000001'"
	if q != want {
		t.Errorf("query = %q", q)
	}

	if _, err := ActiveScratchOrgQuery("x' OR Name != '"); err == nil {
		t.Error("expected rejection of non-id input")
	}
}
