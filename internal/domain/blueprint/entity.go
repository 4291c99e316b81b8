// Package blueprint provides the reusable-rule-set model of the curator.  A
// Blueprint pairs the reactant/product chemical classes of one curated
// reaction with the template rule set that relates them; blueprints holding
// the same set of templates collapse to the identical identity regardless of
// template order.
package blueprint

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/domain/reaction"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Component roles within a blueprint.
const (
	RoleReactants = "reactants"
	RoleProducts  = "products"
)

// ChemicalClass is a named structural pattern representing a category of
// molecules.  The Smarts field historically holds an ordinary SMILES string
// used as a matchable pattern; the name is a wire-format artifact that must
// be preserved.
type ChemicalClass struct {
	Name     string   `json:"name,omitempty"`
	Smarts   string   `json:"smarts,omitempty"`
	Examples []string `json:"examples,omitempty"`
}

// ReactionComponent wraps one chemical class.  The plural field name is
// historical; each component holds exactly one class.
type ReactionComponent struct {
	Name            string         `json:"name,omitempty"`
	ChemicalClasses *ChemicalClass `json:"chemical_classes,omitempty"`
}

// Blueprint is a reusable unit pairing reactant/product chemical classes
// with the rule set that relates them.  It exclusively owns its components
// and templates; nothing is shared with the constructing reaction.
type Blueprint struct {
	Components             map[string][]ReactionComponent `json:"components"`
	Description            string                         `json:"description,omitempty"`
	Metadata               map[string]string              `json:"metadata,omitempty"`
	Name                   string                         `json:"name,omitempty"`
	NamerxnReactionClass   string                         `json:"namerxn_reaction_class,omitempty"`
	NamerxnReactionNumbers []string                       `json:"namerxn_reaction_numbers,omitempty"`
	Templates              []template.Template            `json:"templates,omitempty"`
	Version                string                         `json:"version,omitempty"`
	UID                    string                         `json:"uid,omitempty"`
}

// ComputeUID derives the blueprint identity from its template set: the
// template UIDs are sorted, concatenated and hashed, so the result does not
// depend on template list order.
func (b *Blueprint) ComputeUID() (string, error) {
	if len(b.Templates) == 0 {
		return "", errors.New(errors.ErrCodeMissingTemplate, "blueprint has no templates")
	}
	uids := make([]string, 0, len(b.Templates))
	for _, tpl := range b.Templates {
		if tpl.UID == "" {
			return "", errors.New(errors.ErrCodeMissingTemplate, "blueprint template carries no uid")
		}
		uids = append(uids, tpl.UID)
	}
	sort.Strings(uids)
	return chem.HashString(strings.Join(uids, ""))
}

// Finalize back-fills the UID.  An identity set earlier is preserved.
func (b *Blueprint) Finalize() error {
	if b.UID != "" {
		return nil
	}
	uid, err := b.ComputeUID()
	if err != nil {
		return err
	}
	b.UID = uid
	return nil
}

// componentsFrom copies molecules into owned reaction components.
func componentsFrom(molecules []reaction.Molecule) []ReactionComponent {
	components := make([]ReactionComponent, 0, len(molecules))
	for _, mol := range molecules {
		components = append(components, ReactionComponent{
			Name: mol.Name,
			ChemicalClasses: &ChemicalClass{
				Name:   mol.Name,
				Smarts: mol.SMILES,
			},
		})
	}
	return components
}

// FromReaction builds a Blueprint from a curated reaction.  The reaction's
// template must already be populated; blueprint construction never extracts
// templates itself.
func FromReaction(rxn *reaction.ChemicalReaction) (*Blueprint, error) {
	if rxn == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "reaction is required")
	}
	if rxn.Template == nil {
		return nil, errors.New(errors.ErrCodeMissingTemplate, "reaction carries no template")
	}

	bp := &Blueprint{
		Components: map[string][]ReactionComponent{
			RoleReactants: componentsFrom(rxn.Reactants),
			RoleProducts:  componentsFrom(rxn.Products),
		},
		Description:            rxn.Description,
		Name:                   rxn.Name,
		NamerxnReactionClass:   rxn.NamerxnReactionClass,
		NamerxnReactionNumbers: append([]string(nil), rxn.NamerxnReactionNumbers...),
		Templates:              []template.Template{*rxn.Template},
	}
	if err := bp.Finalize(); err != nil {
		return nil, err
	}
	return bp, nil
}

// FromRecord reconstructs a strict Blueprint from a loosely-typed persisted
// record, validating shape before the value participates in indexing.  A UID
// present in the record wins; otherwise it is recomputed from the templates.
func FromRecord(record map[string]interface{}) (*Blueprint, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidRecord, "blueprint record is not serializable")
	}
	bp := &Blueprint{}
	if err := json.Unmarshal(data, bp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidRecord, "blueprint record has an invalid shape")
	}
	if bp.Components == nil {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "blueprint record has no components")
	}
	if _, ok := bp.Components[RoleReactants]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "blueprint record has no reactant components")
	}
	if _, ok := bp.Components[RoleProducts]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "blueprint record has no product components")
	}
	if err := bp.Finalize(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidRecord, "blueprint record has no usable identity")
	}
	return bp, nil
}

// ComponentSmarts returns the stored pattern strings of one role, in
// component order.  Components without a class contribute nothing.
func (b *Blueprint) ComponentSmarts(role string) []string {
	components := b.Components[role]
	out := make([]string, 0, len(components))
	for _, c := range components {
		if c.ChemicalClasses == nil {
			continue
		}
		out = append(out, c.ChemicalClasses.Smarts)
	}
	return out
}
