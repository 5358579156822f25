// Package store persists the aggregate org list so a fresh process can serve
// it before the first CLI call returns.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/domain"
)

// Snapshot is the persisted document: {timestamp, data}. Timestamp is unix
// milliseconds of the fetch that produced Data.
type Snapshot struct {
	Timestamp int64                 `json:"timestamp"`
	Data      domain.AuthorizedOrgs `json:"data"`
}

// NewSnapshot stamps data with at.
func NewSnapshot(data domain.AuthorizedOrgs, at time.Time) Snapshot {
	return Snapshot{Timestamp: at.UnixMilli(), Data: data}
}

// Time returns the fetch time of the snapshot.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// SnapshotStore is a best-effort persistence backend.
//
// Load reports false when nothing usable is stored (missing, corrupt or of
// the wrong shape). Save never fails the caller: errors are logged by the
// implementation.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, bool)
	Save(ctx context.Context, snap Snapshot)
}

// ErrInvalidSnapshot is returned by Decode for documents of the wrong shape.
var ErrInvalidSnapshot = errors.New("invalid persisted snapshot")

// Encode renders snap as indented JSON.
func Encode(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Decode parses and validates a persisted document. The timestamp must be a
// number and every collection must be a JSON array.
func Decode(raw []byte) (*Snapshot, error) {
	var doc struct {
		Timestamp json.RawMessage `json:"timestamp"`
		Data      *struct {
			DevHubs     json.RawMessage `json:"devHubs"`
			ScratchOrgs json.RawMessage `json:"scratchOrgs"`
			OtherOrgs   json.RawMessage `json:"otherOrgs"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrInvalidSnapshot)
	}

	var ts float64
	if err := json.Unmarshal(doc.Timestamp, &ts); err != nil {
		return nil, fmt.Errorf("%w: timestamp is not a number", ErrInvalidSnapshot)
	}

	collections := map[string]json.RawMessage{
		"devHubs":     doc.Data.DevHubs,
		"scratchOrgs": doc.Data.ScratchOrgs,
		"otherOrgs":   doc.Data.OtherOrgs,
	}
	for name, v := range collections {
		if !isArray(v) {
			return nil, fmt.Errorf("%w: %s is not an array", ErrInvalidSnapshot, name)
		}
	}

	snap := &Snapshot{Timestamp: int64(ts)}
	if err := json.Unmarshal(doc.Data.DevHubs, &snap.Data.DevHubs); err != nil {
		return nil, fmt.Errorf("%w: devHubs: %v", ErrInvalidSnapshot, err)
	}
	if err := json.Unmarshal(doc.Data.ScratchOrgs, &snap.Data.ScratchOrgs); err != nil {
		return nil, fmt.Errorf("%w: scratchOrgs: %v", ErrInvalidSnapshot, err)
	}
	if err := json.Unmarshal(doc.Data.OtherOrgs, &snap.Data.OtherOrgs); err != nil {
		return nil, fmt.Errorf("%w: otherOrgs: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// Chain loads from the first store holding a snapshot and saves to all.
type Chain []SnapshotStore

func (c Chain) Load(ctx context.Context) (*Snapshot, bool) {
	for _, s := range c {
		if snap, ok := s.Load(ctx); ok {
			return snap, true
		}
	}
	return nil, false
}

func (c Chain) Save(ctx context.Context, snap Snapshot) {
	for _, s := range c {
		s.Save(ctx, snap)
	}
}

// Nop stores nothing.
type Nop struct{}

func (Nop) Load(context.Context) (*Snapshot, bool) { return nil, false }
func (Nop) Save(context.Context, Snapshot)         {}
