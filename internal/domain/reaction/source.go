package reaction

import "context"

// Source retrieves chemical reactions from an external pathway database.
// Implementations live in the infrastructure layer.
type Source interface {
	// Name identifies the source in logs and metrics, e.g. "envipath".
	Name() string

	// FetchReactions downloads the reactions of one package. A limit of zero
	// means no limit; a negative limit is rejected with CodeInvalidParam.
	// Connectivity failures carry ErrCodeDataSourceUnavailable and malformed
	// payloads ErrCodeDataSourceParseError.
	FetchReactions(ctx context.Context, packageID string, limit int) ([]*ChemicalReaction, error)
}
