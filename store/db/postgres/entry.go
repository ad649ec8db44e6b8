package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cachewise/cachewise/store"
)

func (d *DB) UpsertEntry(ctx context.Context, upsert *store.Entry) (*store.Entry, error) {
	fields := []string{"key", "value", "expires_at", "created_at", "accessed_at", "hit_count"}
	args := []any{upsert.Key, upsert.Value, upsert.ExpiresAt, upsert.CreatedAt, upsert.AccessedAt, upsert.HitCount}

	stmt := `INSERT INTO cache_entry (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at,
			accessed_at = EXCLUDED.accessed_at,
			hit_count = EXCLUDED.hit_count`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return upsert, nil
}

func (d *DB) GetEntry(ctx context.Context, key string, now int64) (*store.Entry, error) {
	stmt := `
		SELECT key, value, expires_at, created_at, accessed_at, hit_count
		FROM cache_entry
		WHERE key = ` + placeholder(1) + ` AND expires_at > ` + placeholder(2)
	var entry store.Entry
	if err := d.db.QueryRowContext(ctx, stmt, key, now).Scan(
		&entry.Key,
		&entry.Value,
		&entry.ExpiresAt,
		&entry.CreatedAt,
		&entry.AccessedAt,
		&entry.HitCount,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &entry, nil
}

func (d *DB) TouchEntry(ctx context.Context, key string, now int64) error {
	stmt := `UPDATE cache_entry
		SET hit_count = hit_count + 1, accessed_at = ` + placeholder(1) + `
		WHERE key = ` + placeholder(2) + ` AND expires_at > ` + placeholder(3)
	if _, err := d.db.ExecContext(ctx, stmt, now, key, now); err != nil {
		return fmt.Errorf("failed to touch cache entry: %w", err)
	}
	return nil
}

func (d *DB) HasEntry(ctx context.Context, key string, now int64) (bool, error) {
	stmt := `SELECT COUNT(*) FROM cache_entry WHERE key = ` + placeholder(1) + ` AND expires_at > ` + placeholder(2)
	var count int
	if err := d.db.QueryRowContext(ctx, stmt, key, now).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check cache entry: %w", err)
	}
	return count > 0, nil
}

func (d *DB) DeleteEntry(ctx context.Context, key string) (bool, error) {
	stmt := `DELETE FROM cache_entry WHERE key = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete cache entry: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (d *DB) DeleteExpiredEntries(ctx context.Context, now int64) (int64, error) {
	stmt := `DELETE FROM cache_entry WHERE expires_at <= ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted cache entries: %w", err)
	}
	return rows, nil
}

func (d *DB) ClearEntries(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM cache_entry`); err != nil {
		return fmt.Errorf("failed to clear cache entries: %w", err)
	}
	return nil
}

func (d *DB) ListEntries(ctx context.Context, find *store.FindEntry) ([]*store.Entry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ActiveAt != 0 {
		where, args = append(where, "cache_entry.expires_at > "+placeholder(len(args)+1)), append(args, find.ActiveAt)
	}

	query := `
		SELECT key, value, expires_at, created_at, accessed_at, hit_count
		FROM cache_entry
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY cache_entry.accessed_at DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entries: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Entry, 0)
	for rows.Next() {
		var entry store.Entry
		if err := rows.Scan(
			&entry.Key,
			&entry.Value,
			&entry.ExpiresAt,
			&entry.CreatedAt,
			&entry.AccessedAt,
			&entry.HitCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cache entries: %w", err)
	}
	return list, nil
}

func (d *DB) GetEntryStats(ctx context.Context, now int64) (*store.Stats, error) {
	stmt := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at > ` + placeholder(1) + ` THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(LENGTH(value)), 0),
			COALESCE(SUM(hit_count), 0)
		FROM cache_entry`
	var stats store.Stats
	if err := d.db.QueryRowContext(ctx, stmt, now).Scan(
		&stats.Total,
		&stats.Active,
		&stats.AvgSize,
		&stats.TotalHits,
	); err != nil {
		return nil, fmt.Errorf("failed to collect cache stats: %w", err)
	}
	stats.Expired = stats.Total - stats.Active
	return &stats, nil
}
