package store

import (
	"context"
	"fmt"
)

// FailedCommit is one paid-but-unrecorded transaction awaiting manual
// reconciliation.
type FailedCommit struct {
	IntentID         string
	Reason           string
	RawDetail        string
	AmountMinorUnits int64
	Currency         string
	Resolved         bool
	RecordedAt       string
}

// RecordFailedCommit writes one ledger row for a captured payment whose
// order commit failed. Uses ON CONFLICT(intent_id) DO NOTHING for
// idempotency - recording the same intent twice is silently ignored.
func (s *Store) RecordFailedCommit(ctx context.Context, fc FailedCommit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failed_commits
		(intent_id, reason, raw_detail, amount_minor_units, currency)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(intent_id) DO NOTHING
	`,
		fc.IntentID,
		fc.Reason,
		fc.RawDetail,
		fc.AmountMinorUnits,
		fc.Currency,
	)
	if err != nil {
		return fmt.Errorf("record failed commit: %w", err)
	}
	return nil
}

// ListFailedCommits returns ledger rows, oldest first. When
// unresolvedOnly is set, already-reconciled rows are skipped.
func (s *Store) ListFailedCommits(ctx context.Context, unresolvedOnly bool) ([]FailedCommit, error) {
	query := `
		SELECT intent_id, reason, raw_detail, amount_minor_units, currency,
		       resolved, recorded_at
		FROM failed_commits
	`
	if unresolvedOnly {
		query += " WHERE resolved = 0"
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list failed commits: %w", err)
	}
	defer rows.Close()

	var out []FailedCommit
	for rows.Next() {
		var fc FailedCommit
		if err := rows.Scan(&fc.IntentID, &fc.Reason, &fc.RawDetail,
			&fc.AmountMinorUnits, &fc.Currency, &fc.Resolved, &fc.RecordedAt); err != nil {
			return nil, fmt.Errorf("list failed commits: scan: %w", err)
		}
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list failed commits: %w", err)
	}
	return out, nil
}

// ResolveFailedCommit marks one ledger row as reconciled. Returns false
// when no row matches the intent id.
func (s *Store) ResolveFailedCommit(ctx context.Context, intentID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE failed_commits SET resolved = 1 WHERE intent_id = ?
	`, intentID)
	if err != nil {
		return false, fmt.Errorf("resolve failed commit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve failed commit: %w", err)
	}
	return n > 0, nil
}
