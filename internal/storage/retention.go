package storage

import (
	"database/sql"
	"fmt"
	"sort"
)

// RetentionPolicy controls which commit snapshots DeleteStaleCommits is
// willing to remove. The store exposes this policy but never applies it
// on its own — a caller must invoke DeleteStaleCommits explicitly.
type RetentionPolicy struct {
	KeepLatest       int      // always keep the N most recently scanned commits
	ProtectCommitIDs []string // never delete these, regardless of age
}

// DefaultRetentionPolicy keeps the five most recent snapshots.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{KeepLatest: 5}
}

// DeleteStaleCommits removes commit snapshots (and, via ON DELETE CASCADE,
// their files/symbols/edges/occurrences) that fall outside policy. Runs in
// one transaction; all rows for an evicted commit disappear atomically.
func DeleteStaleCommits(db *sql.DB, policy RetentionPolicy) ([]string, error) {
	rows, err := db.Query("SELECT commit_id, timestamp FROM commit_snapshot ORDER BY timestamp DESC")
	if err != nil {
		return nil, fmt.Errorf("list commit snapshots: %w", err)
	}
	type snap struct {
		id string
		ts int64
	}
	var snaps []snap
	for rows.Next() {
		var s snap
		if err := rows.Scan(&s.id, &s.ts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan commit snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].ts > snaps[j].ts })

	protect := make(map[string]bool, len(policy.ProtectCommitIDs))
	for _, id := range policy.ProtectCommitIDs {
		protect[id] = true
	}

	var toEvict []string
	for i, s := range snaps {
		if i < policy.KeepLatest || protect[s.id] {
			continue
		}
		toEvict = append(toEvict, s.id)
	}
	if len(toEvict) == 0 {
		return nil, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin retention transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range toEvict {
		if _, err := tx.Exec("DELETE FROM commit_snapshot WHERE commit_id = ?", id); err != nil {
			return nil, fmt.Errorf("delete commit %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit retention transaction: %w", err)
	}
	return toEvict, nil
}
