// Package template provides the domain model for generalized reaction
// transformation rules.  A Template pairs a forward and a backward SMARTS
// rule derived from one mapped reaction; its identity is the content hash of
// that mapped reaction string, so identical source reactions always yield
// the identical template.
package template

import (
	"github.com/turtacn/MetaTree-Curator/internal/chem"
)

// Template is a generalized transformation rule abstracted from one mapped
// reaction.  Immutable once constructed: the rule fields are filled exactly
// once during extraction and the UID never changes afterwards.
type Template struct {
	// ReactionString is the mapped SMILES/SMARTS the template was derived from.
	ReactionString string `json:"reaction_string"`
	// ProductsTemplate and ReactantsTemplate are the generalized substructure
	// patterns of the two sides.
	ProductsTemplate  string `json:"products_template,omitempty"`
	ReactantsTemplate string `json:"reactants_template,omitempty"`
	// FwdSMARTS transforms reactants into products; RwdSMARTS is its
	// segment-reversal and runs in the retro direction.
	FwdSMARTS string `json:"template_fwd_smarts,omitempty"`
	RwdSMARTS string `json:"template_rwd_smarts,omitempty"`
	// UID is the content hash of ReactionString.
	UID string `json:"uid,omitempty"`
}

// New constructs a Template identified by the mapped reaction string.  The
// rule fields are filled by the extraction service.
func New(reactionString string) (*Template, error) {
	uid, err := chem.HashString(reactionString)
	if err != nil {
		return nil, err
	}
	return &Template{
		ReactionString: reactionString,
		UID:            uid,
	}, nil
}
