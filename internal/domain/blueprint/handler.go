package blueprint

import (
	"context"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/domain/reaction"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Direction selects which rule of a template the handler compiles.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// IsValid reports whether d is a supported reaction direction.
func (d Direction) IsValid() bool {
	return d == DirectionForward || d == DirectionBackward
}

// Handler executes blueprint rules.  It is a two-state machine: idle until
// ActivateTemplate compiles a rule, then activated until another activation
// overwrites the compiled rule.  Each handler instance belongs to a single
// logical caller; the activated rule is private state and needs no locking.
type Handler struct {
	toolkit   chem.Toolkit
	blueprint *Blueprint
	active    chem.Rule
	logger    logging.Logger
}

// NewHandler wraps an existing blueprint.
func NewHandler(tk chem.Toolkit, bp *Blueprint, logger logging.Logger) (*Handler, error) {
	if bp == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "blueprint is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{toolkit: tk, blueprint: bp, logger: logger}, nil
}

// NewHandlerFromReaction builds the blueprint from a curated reaction first.
// The reaction must carry a template.
func NewHandlerFromReaction(tk chem.Toolkit, rxn *reaction.ChemicalReaction, logger logging.Logger) (*Handler, error) {
	bp, err := FromReaction(rxn)
	if err != nil {
		return nil, err
	}
	return NewHandler(tk, bp, logger)
}

// Blueprint returns the wrapped blueprint.
func (h *Handler) Blueprint() *Blueprint {
	return h.blueprint
}

// ActivateTemplate compiles the selected rule of the template at
// templateIndex and transitions the handler to the activated state.
// Re-activating replaces the previously compiled rule.
func (h *Handler) ActivateTemplate(ctx context.Context, templateIndex int, direction Direction) error {
	if !direction.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidDirection, "reaction direction must be %q or %q, got %q",
			DirectionForward, DirectionBackward, direction)
	}
	if templateIndex < 0 || templateIndex >= len(h.blueprint.Templates) {
		return errors.Newf(errors.ErrCodeIndexOutOfRange, "template index %d out of range [0, %d)",
			templateIndex, len(h.blueprint.Templates))
	}

	tpl := h.blueprint.Templates[templateIndex]
	smarts := tpl.FwdSMARTS
	if direction == DirectionBackward {
		smarts = tpl.RwdSMARTS
	}

	rule, err := h.toolkit.ParseReactionRule(ctx, smarts, chem.RuleSMARTS)
	if err != nil {
		return err
	}
	h.active = rule
	return nil
}

// RunReaction applies the selected rule to the ordered molecule tuple and
// returns the first product of the first result set; alternate result sets
// the toolkit may produce are discarded.  The template is re-activated for
// the given index and direction as a side effect, so a prior explicit
// activation is not required and is overridden if it disagrees.
func (h *Handler) RunReaction(ctx context.Context, templateIndex int, direction Direction, molecules []string) (chem.Mol, error) {
	if len(molecules) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "molecules must be provided to run the reaction")
	}

	mols := make([]chem.Mol, 0, len(molecules))
	for _, smiles := range molecules {
		mol, err := h.toolkit.ParseMolecule(ctx, smiles, chem.MoleculeSMILES)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReactionExecution, "error running the reaction").WithDetail(smiles)
		}
		mols = append(mols, mol)
	}

	if err := h.ActivateTemplate(ctx, templateIndex, direction); err != nil {
		return nil, err
	}

	resultSets, err := h.toolkit.ApplyRule(ctx, h.active, mols)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReactionExecution, "error running the reaction")
	}
	if len(resultSets) == 0 || len(resultSets[0]) == 0 {
		return nil, errors.New(errors.ErrCodeReactionExecution, "reaction produced no results")
	}

	h.logger.Debug("reaction executed",
		logging.String("blueprint", h.blueprint.UID),
		logging.Int("result_sets", len(resultSets)))

	return resultSets[0][0], nil
}

// AddReaction is declared in the contract but the merge semantics for
// multi-template blueprints are undecided; it validates its argument and
// changes nothing.
func (h *Handler) AddReaction(rxn *reaction.ChemicalReaction) error {
	if rxn == nil {
		return errors.New(errors.ErrCodeInvalidParam, "new reaction is required")
	}
	return nil
}

// RemoveReaction is declared in the contract but the removal semantics are
// undecided; it validates the index and changes nothing.
func (h *Handler) RemoveReaction(reactionIndex int) error {
	if reactionIndex < 0 || reactionIndex >= len(h.blueprint.Templates) {
		return errors.Newf(errors.ErrCodeIndexOutOfRange, "reaction index %d out of range [0, %d)",
			reactionIndex, len(h.blueprint.Templates))
	}
	return nil
}
