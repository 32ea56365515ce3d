package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/ledger"
)

const latestSnapshotPath = "snapshots/latest.json"

// SnapshotStore persists ledger snapshots. Every save rewrites the latest
// pointer and appends a timestamped copy, so the desk can be restored after
// a restart and the history replayed for audits.
type SnapshotStore struct {
	store Store
	now   func() time.Time
}

// NewSnapshotStore wraps a byte store.
func NewSnapshotStore(s Store) *SnapshotStore {
	return &SnapshotStore{store: s, now: time.Now}
}

// Save persists the snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap ledger.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrSnapshotFailed, err)
	}

	historyPath := fmt.Sprintf("snapshots/history/%s.json", s.now().UTC().Format("20060102T150405Z"))
	if err := s.store.Write(ctx, historyPath, data); err != nil {
		return core.WrapError(core.ErrSnapshotFailed, err)
	}
	if err := s.store.Write(ctx, latestSnapshotPath, data); err != nil {
		return core.WrapError(core.ErrSnapshotFailed, err)
	}
	return nil
}

// Load reads the latest snapshot. The boolean is false when no snapshot
// has ever been saved.
func (s *SnapshotStore) Load(ctx context.Context) (ledger.Snapshot, bool, error) {
	exists, err := s.store.Exists(ctx, latestSnapshotPath)
	if err != nil {
		return ledger.Snapshot{}, false, core.WrapError(core.ErrSnapshotFailed, err)
	}
	if !exists {
		return ledger.Snapshot{}, false, nil
	}

	data, err := s.store.Read(ctx, latestSnapshotPath)
	if err != nil {
		return ledger.Snapshot{}, false, core.WrapError(core.ErrSnapshotFailed, err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return ledger.Snapshot{}, false, core.WrapError(core.ErrSnapshotFailed, err)
	}
	return snap, true, nil
}

// History lists the timestamped snapshot paths, oldest first.
func (s *SnapshotStore) History(ctx context.Context) ([]string, error) {
	return s.store.List(ctx, "snapshots/history")
}
