// Package reaction provides the core domain model for curated biodegradation
// reactions.  The ChemicalReaction aggregate root owns its reactant and
// product Molecules; identity digests are back-filled bottom-up by Finalize
// once the raw fields are populated (molecules first, then the reaction).
package reaction

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Molecule is a named structure participating in a reaction.  SMILES is kept
// as stored; UID is the content hash of that stored string.
type Molecule struct {
	Name   string `json:"name,omitempty"`
	SMILES string `json:"smiles,omitempty"`
	UID    string `json:"uid,omitempty"`
}

// UnmarshalJSON accepts both the curated field names and the enviPath wire
// names ("compoundName" for the molecule name).
func (m *Molecule) UnmarshalJSON(data []byte) error {
	type alias Molecule
	aux := struct {
		*alias
		CompoundName string `json:"compoundName"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.Name == "" && aux.CompoundName != "" {
		m.Name = aux.CompoundName
	}
	return nil
}

// Finalize validates that the molecule parses and back-fills the UID.  A UID
// set earlier is never overwritten; re-finalizing is idempotent.
func (m *Molecule) Finalize(ctx context.Context, tk chem.Toolkit) error {
	if strings.TrimSpace(m.SMILES) == "" {
		return errors.New(errors.ErrCodeEmptyInput, "molecule has no SMILES")
	}
	if _, err := tk.ParseMolecule(ctx, m.SMILES, chem.MoleculeSMILES); err != nil {
		return err
	}
	if m.UID == "" {
		uid, err := chem.HashString(m.SMILES)
		if err != nil {
			return err
		}
		m.UID = uid
	}
	return nil
}

// EnzymeClass identifies the enzyme family associated with a reaction.
type EnzymeClass struct {
	Name   string `json:"enzyme_class_name,omitempty"`
	Number string `json:"enzyme_class_number,omitempty"`
}

// UnmarshalJSON accepts the enviPath wire names "ecName" and "ecNumber".
func (e *EnzymeClass) UnmarshalJSON(data []byte) error {
	type alias EnzymeClass
	aux := struct {
		*alias
		ECName   string `json:"ecName"`
		ECNumber string `json:"ecNumber"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.Name == "" {
		e.Name = aux.ECName
	}
	if e.Number == "" {
		e.Number = aux.ECNumber
	}
	return nil
}

// Pathway references a degradation pathway the reaction belongs to.
type Pathway struct {
	UID string `json:"uid,omitempty"`
}

// ChemicalReaction is the aggregate root for one curated reaction record.
type ChemicalReaction struct {
	Dataset                string             `json:"dataset,omitempty"`
	Description            string             `json:"description,omitempty"`
	EnzymeClasses          []EnzymeClass      `json:"enzyme_classes,omitempty"`
	MappedSMILES           string             `json:"mapped_smiles,omitempty"`
	MultistepFlag          bool               `json:"multistep_flag,omitempty"`
	Name                   string             `json:"name,omitempty"`
	NamerxnReactionClass   string             `json:"namerxn_reaction_class,omitempty"`
	NamerxnReactionNumbers []string           `json:"namerxn_reaction_numbers,omitempty"`
	Pathways               []Pathway          `json:"pathways,omitempty"`
	Products               []Molecule         `json:"products,omitempty"`
	Reactants              []Molecule         `json:"reactants,omitempty"`
	Scenarios              []string           `json:"scenarios,omitempty"`
	Template               *template.Template `json:"template,omitempty"`
	UID                    string             `json:"uid,omitempty"`

	// UnmappedSMILES is the raw reaction string as downloaded.
	// CanonicalSMILES is its per-molecule canonical form; the reaction UID is
	// the content hash of CanonicalSMILES.
	UnmappedSMILES  string `json:"unmapped_smiles"`
	CanonicalSMILES string `json:"unmapped_smiles_canonicalized,omitempty"`
}

// UnmarshalJSON accepts both the curated field names and the enviPath wire
// names: "smirks" for the reaction string, "educts" for the reactants,
// "ecNumbers" for the enzyme classes and "multistep" for the flag.
func (r *ChemicalReaction) UnmarshalJSON(data []byte) error {
	type alias ChemicalReaction
	aux := struct {
		*alias
		Smirks    string        `json:"smirks"`
		Educts    []Molecule    `json:"educts"`
		ECNumbers []EnzymeClass `json:"ecNumbers"`
		Multistep *bool         `json:"multistep"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.UnmappedSMILES == "" && aux.Smirks != "" {
		r.UnmappedSMILES = aux.Smirks
	}
	if len(r.Reactants) == 0 && len(aux.Educts) > 0 {
		r.Reactants = aux.Educts
	}
	if len(r.EnzymeClasses) == 0 && len(aux.ECNumbers) > 0 {
		r.EnzymeClasses = aux.ECNumbers
	}
	if aux.Multistep != nil {
		r.MultistepFlag = *aux.Multistep
	}
	return nil
}

// Finalize runs the single deterministic identity pass: every molecule is
// validated and stamped first, then the reaction string is canonicalized and
// the reaction UID derived from the canonical form.  Calling Finalize on an
// already-stamped reaction reproduces the same values.  A reaction with an
// unparseable SMILES anywhere is rejected whole.
func (r *ChemicalReaction) Finalize(ctx context.Context, tk chem.Toolkit) error {
	if strings.TrimSpace(r.UnmappedSMILES) == "" {
		return errors.New(errors.ErrCodeEmptyInput, "reaction has no unmapped SMILES")
	}

	for i := range r.Reactants {
		if err := r.Reactants[i].Finalize(ctx, tk); err != nil {
			return errors.Wrap(err, errors.GetCode(err), "invalid reactant").WithDetail(r.Reactants[i].SMILES)
		}
	}
	for i := range r.Products {
		if err := r.Products[i].Finalize(ctx, tk); err != nil {
			return errors.Wrap(err, errors.GetCode(err), "invalid product").WithDetail(r.Products[i].SMILES)
		}
	}

	canonical, err := chem.CanonicalizeReaction(ctx, tk, r.UnmappedSMILES)
	if err != nil {
		return err
	}
	r.CanonicalSMILES = canonical

	if r.UID == "" {
		uid, err := chem.HashString(canonical)
		if err != nil {
			return err
		}
		r.UID = uid
	}
	return nil
}
