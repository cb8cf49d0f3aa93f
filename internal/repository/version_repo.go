package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-file-vault/internal/model"
)

type VersionRepository struct {
	pool *pgxpool.Pool
}

func NewVersionRepository(pool *pgxpool.Pool) *VersionRepository {
	return &VersionRepository{pool: pool}
}

func (r *VersionRepository) Create(ctx context.Context, version model.Version) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO file_versions
		 (id, original_file_id, original_name, blob_key, size_bytes, content_type,
		  snapshot_at, created_by_id, created_by_name, created_by_role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		version.ID, version.OriginalFileID, version.OriginalName, version.BlobKey,
		version.SizeBytes, version.ContentType, version.SnapshotAt,
		version.CreatedBy.ID, version.CreatedBy.DisplayName, version.CreatedBy.Role)
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}

	return nil
}

func (r *VersionRepository) Get(ctx context.Context, id string) (model.Version, error) {
	var v model.Version
	err := r.pool.QueryRow(ctx,
		`SELECT id, original_file_id, original_name, blob_key, size_bytes, content_type,
		        snapshot_at, created_by_id, created_by_name, created_by_role
		 FROM file_versions WHERE id = $1`, id).
		Scan(&v.ID, &v.OriginalFileID, &v.OriginalName, &v.BlobKey, &v.SizeBytes,
			&v.ContentType, &v.SnapshotAt,
			&v.CreatedBy.ID, &v.CreatedBy.DisplayName, &v.CreatedBy.Role)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Version{}, model.ErrNotFound
	}
	if err != nil {
		return model.Version{}, fmt.Errorf("get version: %w", err)
	}

	return v, nil
}

func (r *VersionRepository) ListByFile(ctx context.Context, fileID string) ([]model.Version, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, original_file_id, original_name, blob_key, size_bytes, content_type,
		        snapshot_at, created_by_id, created_by_name, created_by_role
		 FROM file_versions
		 WHERE original_file_id = $1
		 ORDER BY snapshot_at DESC, id DESC`, fileID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := make([]model.Version, 0)
	for rows.Next() {
		var v model.Version
		if err := rows.Scan(&v.ID, &v.OriginalFileID, &v.OriginalName, &v.BlobKey,
			&v.SizeBytes, &v.ContentType, &v.SnapshotAt,
			&v.CreatedBy.ID, &v.CreatedBy.DisplayName, &v.CreatedBy.Role); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

func (r *VersionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM file_versions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
