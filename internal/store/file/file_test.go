package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/store"
)

func sampleOrgs() domain.AuthorizedOrgs {
	return domain.AuthorizedOrgs{
		DevHubs:     []domain.OrgRecord{{Username: "hub@acme.com", Aliases: []string{"hub"}, IsDevHub: true, OrgType: domain.OrgTypeProduction}},
		ScratchOrgs: []domain.ScratchOrgRecord{{ID: "00D1", OrgID: "00D1", DevHubUsername: "hub@acme.com"}},
		OtherOrgs:   []domain.OrgRecord{},
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")
	s := New(dir, logger.Nop())
	if !s.Enabled() {
		t.Fatal("store should be enabled")
	}

	at := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	s.Save(context.Background(), store.NewSnapshot(sampleOrgs(), at))

	snap, ok := s.Load(context.Background())
	if !ok {
		t.Fatal("Load() found nothing after Save()")
	}
	if !snap.Time().Equal(at) {
		t.Errorf("timestamp = %v, want %v", snap.Time(), at)
	}
	if len(snap.Data.DevHubs) != 1 || snap.Data.DevHubs[0].Username != "hub@acme.com" {
		t.Errorf("devHubs = %+v", snap.Data.DevHubs)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != FileName {
		t.Errorf("storage dir should only hold %s, got %v", FileName, entries)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := New(t.TempDir(), logger.Nop())
	if _, ok := s.Load(context.Background()); ok {
		t.Error("Load() on empty dir should find nothing")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "not json at all"},
		{"truncated", `{"timestamp": 1, "data": {"devHubs": [`},
		{"wrong shape", `{"timestamp": 1, "data": {"devHubs": "x", "scratchOrgs": [], "otherOrgs": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			s := New(dir, logger.Nop())
			if _, ok := s.Load(context.Background()); ok {
				t.Error("Load() should reject corrupt content")
			}
		})
	}
}

func TestDisabledWhenDirCannotBeCreated(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(filepath.Join(blocker, "storage"), logger.Nop())
	if s.Enabled() {
		t.Fatal("store should be disabled when the directory cannot be created")
	}

	// Must not panic nor write anything.
	s.Save(context.Background(), store.NewSnapshot(sampleOrgs(), time.Now()))
	if _, ok := s.Load(context.Background()); ok {
		t.Error("disabled store should never load")
	}
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, logger.Nop())
	// Replace the target with a directory so rename fails.
	if err := os.Mkdir(filepath.Join(dir, FileName), 0o700); err != nil {
		t.Fatal(err)
	}
	s.Save(context.Background(), store.NewSnapshot(sampleOrgs(), time.Now()))
}

func TestClear(t *testing.T) {
	s := New(t.TempDir(), logger.Nop())
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() on an empty dir = %v", err)
	}

	s.Save(context.Background(), store.NewSnapshot(sampleOrgs(), time.Now()))
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() = %v", err)
	}
	if _, ok := s.Load(context.Background()); ok {
		t.Error("snapshot should be gone after Clear()")
	}
}
