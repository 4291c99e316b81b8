package blueprint

import (
	"context"
	"fmt"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// IndexEntry is the searchable view of one blueprint: its identity plus the
// stored pattern strings of all reactant components followed by all product
// components, in component order.
type IndexEntry struct {
	UID    string
	SMILES []string
}

// Search answers substructure queries over a blueprint library.  The index
// preserves the order of the input collection, so match results come back in
// the same relative order.
type Search struct {
	toolkit chem.Toolkit
	entries []IndexEntry
	logger  logging.Logger
}

// NewSearch indexes a blueprint library.
func NewSearch(tk chem.Toolkit, blueprints []*Blueprint, logger logging.Logger) *Search {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	entries := make([]IndexEntry, 0, len(blueprints))
	for _, bp := range blueprints {
		smiles := append(bp.ComponentSmarts(RoleReactants), bp.ComponentSmarts(RoleProducts)...)
		entries = append(entries, IndexEntry{UID: bp.UID, SMILES: smiles})
	}
	return &Search{toolkit: tk, entries: entries, logger: logger}
}

// NewSearchFromRecords reconstructs strict blueprints from loose persisted
// records before indexing, so record-shape violations surface here rather
// than mid-search.
func NewSearchFromRecords(tk chem.Toolkit, records []map[string]interface{}, logger logging.Logger) (*Search, error) {
	blueprints := make([]*Blueprint, 0, len(records))
	for i, record := range records {
		bp, err := FromRecord(record)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidRecord,
				fmt.Sprintf("blueprint record %d is not indexable", i))
		}
		blueprints = append(blueprints, bp)
	}
	return NewSearch(tk, blueprints, logger), nil
}

// Len returns the number of indexed blueprints.
func (s *Search) Len() int {
	return len(s.entries)
}

// Search returns the UIDs of every blueprint with at least one stored string
// containing the query substructure, in index order.  Any parse failure,
// whether of the query or of an indexed entry, aborts the whole search; a
// partially-matched result set is never returned.
func (s *Search) Search(ctx context.Context, querySMILES string) ([]string, error) {
	pattern, err := s.toolkit.ParseMolecule(ctx, querySMILES, chem.MoleculeSMILES)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSubstructureSearch,
			"an error occurred during the substructure search").
			WithDetail(fmt.Sprintf("Invalid SMILES string: %s", querySMILES))
	}

	matched := make([]string, 0)
	for _, entry := range s.entries {
		for _, smiles := range entry.SMILES {
			mol, err := s.toolkit.ParseMolecule(ctx, smiles, chem.MoleculeSMILES)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSubstructureSearch,
					"an error occurred during the substructure search").
					WithDetail(fmt.Sprintf("Invalid SMILES string: %s", smiles))
			}
			ok, err := s.toolkit.HasSubstructure(ctx, mol, pattern)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSubstructureSearch,
					"an error occurred during the substructure search")
			}
			if ok {
				matched = append(matched, entry.UID)
				break
			}
		}
	}

	s.logger.Debug("substructure search complete",
		logging.String("query", querySMILES),
		logging.Int("indexed", len(s.entries)),
		logging.Int("matched", len(matched)))

	return matched, nil
}
