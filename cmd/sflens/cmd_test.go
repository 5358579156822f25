package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sflens/internal/devhub"
	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/version"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	runVersion(cmd, nil)

	if got := strings.TrimSpace(buf.String()); got != version.String() {
		t.Errorf("version output = %q, want %q", got, version.String())
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"devhubs"},
		{"scratch-orgs"},
		{"snapshots"},
		{"delete", "scratch-orgs"},
		{"delete", "snapshots"},
		{"export"},
		{"cache", "clear"},
		{"version"},
	} {
		found, _, err := rootCmd.Find(path)
		if err != nil || found == rootCmd {
			t.Errorf("command %v not registered", path)
		}
	}
}

func TestDeleteRequiresValidTargets(t *testing.T) {
	hubUsername = ""
	t.Cleanup(func() { hubUsername = "" })

	err := runDeleteScratchOrgs(&cobra.Command{}, []string{"2SR000000000001"})
	if err == nil || !strings.Contains(err.Error(), "invalid request") {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestReportDeletion(t *testing.T) {
	jsonOutput = false
	var buf bytes.Buffer
	res := domain.DeleteResult{
		Success: []string{"a", "b"},
		Failed:  []domain.DeleteFailure{{ID: "c", Error: "ENTITY_IS_DELETED"}},
		Methods: map[string]domain.DeleteMethod{"a": domain.DeleteViaActiveScratchOrg},
	}

	err := reportDeletion(&buf, res)
	if err == nil || err.Error() != "1 of 3 deletions failed" {
		t.Errorf("reportDeletion() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"a deleted (activeScratchOrg)", "b deleted\n", "c: ENTITY_IS_DELETED"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := reportDeletion(&buf, domain.DeleteResult{Success: []string{"a"}}); err != nil {
		t.Errorf("all-success deletion should not fail: %v", err)
	}
}

func TestPrintDevHubs(t *testing.T) {
	var buf bytes.Buffer
	hubs := []domain.DevHubRecord{{
		OrgRecord: domain.OrgRecord{Username: "hub@acme.com", Aliases: []string{"hub", "prod"}, ConnectedStatus: "Connected"},
		Limits:    domain.ScratchOrgLimits{ActiveScratchOrgs: 2, MaxActiveScratchOrgs: 40, DailyScratchOrgs: 5, MaxDailyScratchOrgs: 80},
	}}

	if err := printDevHubs(&buf, hubs); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	for _, want := range []string{"hub@acme.com", "hub,prod", "2/40", "5/80"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
}

func TestPrintSnapshotsUnavailable(t *testing.T) {
	var buf bytes.Buffer
	if err := printSnapshots(&buf, domain.SnapshotListing{Status: domain.SnapshotsUnavailable}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "not available") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintEvents(t *testing.T) {
	events := make(chan devhub.Event, 3)
	events <- devhub.Event{Kind: devhub.EventDevHubsLoaded}
	events <- devhub.Event{Kind: devhub.EventComplete}
	close(events)

	var buf bytes.Buffer
	if err := printEvents(&buf, events); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"command":"devHubsData"`) ||
		!strings.Contains(lines[1], `"command":"loadingComplete"`) {
		t.Errorf("unexpected event lines: %q", lines)
	}

	failing := make(chan devhub.Event, 1)
	failing <- devhub.Event{Kind: devhub.EventError, Err: &sfcli.CommandError{Message: "No authorization information found"}}
	close(failing)
	err := printEvents(&bytes.Buffer{}, failing)
	if err == nil || !strings.Contains(err.Error(), "No authorization information found") {
		t.Errorf("printEvents() error = %v", err)
	}
}
