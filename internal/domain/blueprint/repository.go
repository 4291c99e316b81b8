package blueprint

import (
	"context"
)

// Repository is the persistence contract for blueprint libraries.
// Implementations must keep Save idempotent on UID: saving a blueprint whose
// identity already exists replaces the stored value.
type Repository interface {
	// Save persists a blueprint keyed by its UID.
	Save(ctx context.Context, bp *Blueprint) error

	// SaveAll persists a batch in one round trip where the backend allows.
	SaveAll(ctx context.Context, bps []*Blueprint) error

	// FindByUID retrieves one blueprint.
	// Returns errors.CodeNotFound if no blueprint with the given UID exists.
	FindByUID(ctx context.Context, uid string) (*Blueprint, error)

	// List returns the stored library in insertion order.
	List(ctx context.Context) ([]*Blueprint, error)

	// DeleteByUID removes one blueprint.
	// Returns errors.CodeNotFound if no blueprint with the given UID exists.
	DeleteByUID(ctx context.Context, uid string) error

	// Count reports the library size.
	Count(ctx context.Context) (int64, error)
}
