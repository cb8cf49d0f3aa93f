package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-file-vault/internal/model"
	"go-file-vault/internal/store"
)

const recordColumns = `id, name, kind, virtual_path, scope, size_bytes, content_type, blob_key,
	        is_deleted, created_by_id, created_by_name, created_by_role, created_at, updated_at,
	        deleted_by_id, deleted_by_name, deleted_by_role, deleted_at`

// RecordRepository implements store.RecordStore on PostgreSQL. BatchUpdate
// runs inside one transaction, which is the store's native atomic batch.
type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

func (r *RecordRepository) Create(ctx context.Context, record model.FileRecord) (string, error) {
	record.ID = uuid.NewString()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO file_records
		 (id, name, kind, virtual_path, scope, size_bytes, content_type, blob_key,
		  is_deleted, created_by_id, created_by_name, created_by_role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		record.ID, record.Name, string(record.Kind), record.VirtualPath, record.Scope,
		record.SizeBytes, record.ContentType, record.BlobKey, record.IsDeleted,
		record.CreatedBy.ID, record.CreatedBy.DisplayName, record.CreatedBy.Role,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("create file record: %w", err)
	}

	return record.ID, nil
}

func (r *RecordRepository) Get(ctx context.Context, id string) (model.FileRecord, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM file_records WHERE id = $1`, recordColumns), id)

	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.FileRecord{}, model.ErrNotFound
	}
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("get file record: %w", err)
	}

	return record, nil
}

func (r *RecordRepository) Update(ctx context.Context, id string, patch store.RecordPatch) error {
	set, args := buildRecordSet(patch)
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE file_records SET %s WHERE id = $%d`,
		strings.Join(set, ", "), len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update file record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *RecordRepository) QueryByScopeAndPath(ctx context.Context, scope string, path string, isDeleted bool) ([]model.FileRecord, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM file_records
		 WHERE scope = $1 AND virtual_path = $2 AND is_deleted = $3
		 ORDER BY id`, recordColumns),
		scope, path, isDeleted)
	if err != nil {
		return nil, fmt.Errorf("query records by path: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (r *RecordRepository) QueryByScopeAndPathPrefix(ctx context.Context, scope string, prefix string) ([]model.FileRecord, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM file_records
		 WHERE scope = $1 AND is_deleted = FALSE
		   AND (virtual_path = $2 OR virtual_path LIKE $3 ESCAPE '\')
		 ORDER BY id`, recordColumns),
		scope, prefix, likeEscape(prefix)+`/%`)
	if err != nil {
		return nil, fmt.Errorf("query records by path prefix: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (r *RecordRepository) BatchUpdate(ctx context.Context, items []store.BatchItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, item := range items {
		set, args := buildRecordSet(item.Patch)
		if len(set) == 0 {
			continue
		}

		args = append(args, item.ID)
		query := fmt.Sprintf(`UPDATE file_records SET %s WHERE id = $%d`,
			strings.Join(set, ", "), len(args))

		tag, execErr := tx.Exec(ctx, query, args...)
		if execErr != nil {
			return fmt.Errorf("batch update %q: %w", item.ID, execErr)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("batch update %q: %w", item.ID, model.ErrNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch update: %w", err)
	}

	return nil
}

func buildRecordSet(patch store.RecordPatch) ([]string, []any) {
	set := make([]string, 0)
	args := make([]any, 0)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.VirtualPath != nil {
		add("virtual_path", *patch.VirtualPath)
	}
	if patch.BlobKey != nil {
		add("blob_key", *patch.BlobKey)
	}
	if patch.SizeBytes != nil {
		add("size_bytes", *patch.SizeBytes)
	}
	if patch.ContentType != nil {
		add("content_type", *patch.ContentType)
	}
	if patch.IsDeleted != nil {
		add("is_deleted", *patch.IsDeleted)
	}
	if patch.DeletedBy != nil {
		add("deleted_by_id", patch.DeletedBy.ID)
		add("deleted_by_name", patch.DeletedBy.DisplayName)
		add("deleted_by_role", patch.DeletedBy.Role)
	}
	if patch.DeletedAt != nil {
		add("deleted_at", *patch.DeletedAt)
	}
	if patch.ClearDeletion {
		set = append(set, "deleted_by_id = ''", "deleted_by_name = ''", "deleted_by_role = ''", "deleted_at = NULL")
	}
	if patch.UpdatedAt != nil {
		add("updated_at", *patch.UpdatedAt)
	}

	return set, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.FileRecord, error) {
	var rec model.FileRecord
	var kind string

	err := row.Scan(
		&rec.ID, &rec.Name, &kind, &rec.VirtualPath, &rec.Scope,
		&rec.SizeBytes, &rec.ContentType, &rec.BlobKey, &rec.IsDeleted,
		&rec.CreatedBy.ID, &rec.CreatedBy.DisplayName, &rec.CreatedBy.Role,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.DeletedBy.ID, &rec.DeletedBy.DisplayName, &rec.DeletedBy.Role,
		&rec.DeletedAt)
	if err != nil {
		return model.FileRecord{}, err
	}

	rec.Kind = model.Kind(kind)
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]model.FileRecord, error) {
	records := make([]model.FileRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// likeEscape neutralizes LIKE metacharacters in a path so folder names
// containing % or _ cannot widen a prefix match.
func likeEscape(raw string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(raw)
}
