package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-file-vault/internal/model"
)

const auditColumns = `id, action, file_id, file_name, scope, path, source_path, target_path,
	        actor_id, actor_name, actor_role, metadata, occurred_at`

// AuditRepository implements both store.AuditStore (Append/Scan) and
// store.AuditAggregator (Query) on PostgreSQL: the folder-filtered query is
// the SQL-side aggregation, while Scan stays available as the plain
// fallback contract.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, entry model.AuditEntry) error {
	var metadataJSON []byte
	if len(entry.Metadata) > 0 {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		metadataJSON = data
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (id, action, file_id, file_name, scope, path, source_path, target_path,
		  actor_id, actor_name, actor_role, metadata, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, string(entry.Action), entry.FileID, entry.FileName, entry.Scope,
		entry.Path, entry.SourcePath, entry.TargetPath,
		entry.Actor.ID, entry.Actor.DisplayName, entry.Actor.Role,
		metadataJSON, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

func (r *AuditRepository) Scan(ctx context.Context, scope string, limit int) ([]model.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM audit_entries
		 WHERE scope = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`, auditColumns),
		scope, limit)
	if err != nil {
		return nil, fmt.Errorf("scan audit entries: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func (r *AuditRepository) Query(ctx context.Context, scope string, folder string, limit int) ([]model.AuditEntry, error) {
	if folder == "" {
		return r.Scan(ctx, scope, limit)
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM audit_entries
		 WHERE scope = $1 AND path = $2
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $3`, auditColumns),
		scope, folder, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func collectAuditEntries(rows pgx.Rows) ([]model.AuditEntry, error) {
	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var action string
		var metadataJSON []byte

		if err := rows.Scan(
			&e.ID, &action, &e.FileID, &e.FileName, &e.Scope,
			&e.Path, &e.SourcePath, &e.TargetPath,
			&e.Actor.ID, &e.Actor.DisplayName, &e.Actor.Role,
			&metadataJSON, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		e.Action = model.AuditAction(action)
		if len(metadataJSON) > 0 {
			var metadata map[string]string
			if jsonErr := json.Unmarshal(metadataJSON, &metadata); jsonErr == nil {
				e.Metadata = metadata
			}
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
