// Package repositories holds the PostgreSQL implementations of the domain
// persistence contracts.
package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/MetaTree-Curator/internal/domain/blueprint"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

const upsertBlueprint = `
	INSERT INTO blueprints (uid, name, version, document)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (uid) DO UPDATE SET
		name       = EXCLUDED.name,
		version    = EXCLUDED.version,
		document   = EXCLUDED.document,
		updated_at = now()`

// BlueprintRepository is the PostgreSQL implementation of
// blueprint.Repository. The full blueprint is stored as a JSONB document
// keyed by its uid; saving an existing uid replaces the document.
type BlueprintRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ blueprint.Repository = (*BlueprintRepository)(nil)

// NewBlueprintRepository constructs a ready-to-use repository.
func NewBlueprintRepository(pool *pgxpool.Pool, logger logging.Logger) *BlueprintRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BlueprintRepository{pool: pool, logger: logger.Named("blueprint_repo")}
}

// Save persists one blueprint keyed by its uid.
func (r *BlueprintRepository) Save(ctx context.Context, bp *blueprint.Blueprint) error {
	if bp == nil || bp.UID == "" {
		return errors.New(errors.ErrCodeInvalidParam, "blueprint must carry a uid")
	}
	doc, err := json.Marshal(bp)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot serialize blueprint").WithDetail(bp.UID)
	}
	if _, err := r.pool.Exec(ctx, upsertBlueprint, bp.UID, bp.Name, bp.Version, doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot save blueprint").WithDetail(bp.UID)
	}
	return nil
}

// SaveAll persists a batch in one round trip.
func (r *BlueprintRepository) SaveAll(ctx context.Context, bps []*blueprint.Blueprint) error {
	if len(bps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, bp := range bps {
		if bp == nil || bp.UID == "" {
			return errors.New(errors.ErrCodeInvalidParam, "blueprint must carry a uid")
		}
		doc, err := json.Marshal(bp)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "cannot serialize blueprint").WithDetail(bp.UID)
		}
		batch.Queue(upsertBlueprint, bp.UID, bp.Name, bp.Version, doc)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range bps {
		if _, err := results.Exec(); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot save blueprint batch")
		}
	}
	r.logger.Debug("blueprint batch saved", logging.Int("count", len(bps)))
	return nil
}

// FindByUID retrieves one blueprint.
func (r *BlueprintRepository) FindByUID(ctx context.Context, uid string) (*blueprint.Blueprint, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT document FROM blueprints WHERE uid = $1`, uid).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodeNotFound, "blueprint %s not found", uid)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot load blueprint").WithDetail(uid)
	}
	return decodeBlueprint(doc, uid)
}

// List returns the stored library in insertion order.
func (r *BlueprintRepository) List(ctx context.Context) ([]*blueprint.Blueprint, error) {
	rows, err := r.pool.Query(ctx, `SELECT uid, document FROM blueprints ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot list blueprints")
	}
	defer rows.Close()

	out := make([]*blueprint.Blueprint, 0)
	for rows.Next() {
		var uid string
		var doc []byte
		if err := rows.Scan(&uid, &doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot scan blueprint row")
		}
		bp, err := decodeBlueprint(doc, uid)
		if err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot list blueprints")
	}
	return out, nil
}

// DeleteByUID removes one blueprint.
func (r *BlueprintRepository) DeleteByUID(ctx context.Context, uid string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blueprints WHERE uid = $1`, uid)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot delete blueprint").WithDetail(uid)
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "blueprint %s not found", uid)
	}
	return nil
}

// Count reports the library size.
func (r *BlueprintRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM blueprints`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot count blueprints")
	}
	return count, nil
}

func decodeBlueprint(doc []byte, uid string) (*blueprint.Blueprint, error) {
	var bp blueprint.Blueprint
	if err := json.Unmarshal(doc, &bp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "stored blueprint document is corrupt").
			WithDetail(uid)
	}
	return &bp, nil
}
