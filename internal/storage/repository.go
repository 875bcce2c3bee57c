package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/settings"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

var ErrNotFound = errors.New("not found")

// SaveSnapshot writes every domain slice of snap in one transaction.
func (r *Repository) SaveSnapshot(ctx context.Context, snap store.Snapshot, at time.Time) error {
	slices := map[string]any{
		device.Name:    snap.Device,
		analytics.Name: snap.Analytics,
		settings.Name:  snap.Settings,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO state_slices (domain, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			payload=excluded.payload,
			updated_at=excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, slice := range slices {
		payload, err := json.Marshal(slice)
		if err != nil {
			return fmt.Errorf("encode %s slice: %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, name, string(payload), formatTime(at)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSnapshot reads the persisted slices. Missing slices keep their
// initial values; ErrNotFound is returned when nothing was ever saved.
func (r *Repository) LoadSnapshot(ctx context.Context) (store.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT domain, payload FROM state_slices`)
	if err != nil {
		return store.Snapshot{}, err
	}
	defer rows.Close()

	snap := store.Initial()
	found := 0
	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			return store.Snapshot{}, err
		}
		var target any
		switch name {
		case device.Name:
			target = &snap.Device
		case analytics.Name:
			target = &snap.Analytics
		case settings.Name:
			target = &snap.Settings
		default:
			r.logger.Warn("ignoring unknown persisted slice", "domain", name)
			continue
		}
		if err := json.Unmarshal([]byte(payload), target); err != nil {
			return store.Snapshot{}, fmt.Errorf("decode %s slice: %w", name, err)
		}
		found++
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, err
	}
	if found == 0 {
		return store.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// AppendArchive stores entries; entries already archived are skipped.
func (r *Repository) AppendArchive(ctx context.Context, entries ...model.UsageEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO usage_archive (id, timestamp, action, duration, trash_level)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("archive entry at %s: missing id", e.Timestamp)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, formatTime(e.Timestamp), string(e.Action), e.Duration, e.TrashLevel); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListArchive returns up to limit entries, newest first.
func (r *Repository) ListArchive(ctx context.Context, limit int) ([]model.UsageEntry, error) {
	if limit <= 0 {
		limit = analytics.HistoryLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, action, duration, trash_level
		FROM usage_archive
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ListArchiveSince returns entries at or after since, oldest first.
func (r *Repository) ListArchiveSince(ctx context.Context, since time.Time) ([]model.UsageEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, action, duration, trash_level
		FROM usage_archive
		WHERE timestamp >= ?
		ORDER BY timestamp ASC, id ASC`, formatTime(since))
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// SweepArchive deletes entries older than before and reports how many went.
func (r *Repository) SweepArchive(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usage_archive WHERE timestamp < ?`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]model.UsageEntry, error) {
	defer rows.Close()
	out := []model.UsageEntry{}
	for rows.Next() {
		var (
			e      model.UsageEntry
			ts     string
			action string
		)
		if err := rows.Scan(&e.ID, &ts, &action, &e.Duration, &e.TrashLevel); err != nil {
			return nil, err
		}
		e.Timestamp = parseTime(ts)
		e.Action = model.UsageAction(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
