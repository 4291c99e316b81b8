// Package chem defines the chemistry capability contracts for the
// MetaTree-Curator toolchain, together with the pure string operations
// (hashing, reaction splitting/joining, rule reversal) the curator owns
// itself.  Molecule parsing, canonical-form generation, substructure matching
// and rule application are deliberately NOT reimplemented here: they are the
// province of an external cheminformatics toolkit (RDKit behind the chemtk
// sidecar client in production, a deterministic fake in tests).
package chem

import (
	"context"

	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// MoleculeFormat identifies the notation a molecule string is written in.
// The set is closed; the toolkit rejects anything else.
type MoleculeFormat string

const (
	MoleculeSMILES   MoleculeFormat = "smiles"
	MoleculeSMARTS   MoleculeFormat = "smarts"
	MoleculeMolBlock MoleculeFormat = "molblock"
)

// IsValid reports whether f is one of the supported molecule formats.
func (f MoleculeFormat) IsValid() bool {
	switch f {
	case MoleculeSMILES, MoleculeSMARTS, MoleculeMolBlock:
		return true
	}
	return false
}

// RuleFormat identifies the notation a reaction rule string is written in.
type RuleFormat string

const (
	RuleSMILES   RuleFormat = "smiles"
	RuleSMARTS   RuleFormat = "smarts"
	RuleRxnBlock RuleFormat = "rxn_block"
)

// IsValid reports whether f is one of the supported rule input formats.
func (f RuleFormat) IsValid() bool {
	switch f {
	case RuleSMILES, RuleSMARTS, RuleRxnBlock:
		return true
	}
	return false
}

// RuleOutputFormat identifies the notation a reaction rule is serialized to.
// RuleOutRxn emits a V3000 RXN block with agents separated.
type RuleOutputFormat string

const (
	RuleOutSMILES     RuleOutputFormat = "smiles"
	RuleOutSMARTS     RuleOutputFormat = "smarts"
	RuleOutRxn        RuleOutputFormat = "rxn"
	RuleOutRxnBlockV2 RuleOutputFormat = "rxn_blockV2K"
	RuleOutRxnBlockV3 RuleOutputFormat = "rxn_blockV3K"
)

// IsValid reports whether f is one of the supported rule output formats.
func (f RuleOutputFormat) IsValid() bool {
	switch f {
	case RuleOutSMILES, RuleOutSMARTS, RuleOutRxn, RuleOutRxnBlockV2, RuleOutRxnBlockV3:
		return true
	}
	return false
}

// Mol is an opaque handle to a toolkit-parsed molecule.  A handle is only
// meaningful to the Toolkit implementation that produced it.
type Mol interface {
	// Input returns the string the molecule was parsed from, for diagnostics.
	Input() string
}

// Rule is an opaque handle to a toolkit-compiled reaction rule.
type Rule interface {
	// Input returns the string the rule was compiled from, for diagnostics.
	Input() string
}

// Toolkit is the external cheminformatics capability set.  Implementations
// must be safe for use by a single logical caller at a time; the curator core
// never shares handles across goroutines.
type Toolkit interface {
	// ParseMolecule parses a molecule string in the given format.
	// Unsupported formats yield ErrCodeMoleculeFormatInvalid; unparseable
	// input yields ErrCodeInvalidMolecule.
	ParseMolecule(ctx context.Context, input string, format MoleculeFormat) (Mol, error)

	// ParseReactionRule compiles a reaction rule string in the given format.
	// Unsupported formats yield ErrCodeRuleFormatInvalid; unparseable input
	// yields ErrCodeInvalidPattern.
	ParseReactionRule(ctx context.Context, input string, format RuleFormat) (Rule, error)

	// Canonicalize returns the canonical string form of a parsed molecule,
	// independent of the atom ordering of the original input.
	Canonicalize(ctx context.Context, mol Mol) (string, error)

	// HasSubstructure reports whether pattern occurs as a substructure of mol.
	HasSubstructure(ctx context.Context, mol, pattern Mol) (bool, error)

	// ApplyRule runs a compiled rule against an ordered tuple of molecules.
	// The outer slice enumerates alternative result sets; the inner slice the
	// products of one result set.  An empty outer slice means the rule did
	// not apply.
	ApplyRule(ctx context.Context, rule Rule, mols []Mol) ([][]Mol, error)

	// WriteRule serializes a compiled rule to the requested output format.
	// When useAtomMapping is false, atom-map numbers are stripped first.
	WriteRule(ctx context.Context, rule Rule, format RuleOutputFormat, useAtomMapping bool) (string, error)
}

// ExtractionInput is the reactants/agents/products triple handed to the
// external template extractor.
type ExtractionInput struct {
	ID        string `json:"_id"`
	Products  string `json:"products"`
	Agents    string `json:"agents"`
	Reactants string `json:"reactants"`
}

// ExtractionOutput is the generalized transformation the extractor derives
// from one mapped reaction.  ReactionSMARTS is oriented product→reactant
// (retro direction).
type ExtractionOutput struct {
	Products         string `json:"products"`
	Reactants        string `json:"reactants"`
	ReactionSMARTS   string `json:"reaction_smarts"`
	IntraOnly        bool   `json:"intra_only"`
	DimerOnly        bool   `json:"dimer_only"`
	ReactionID       string `json:"reaction_id"`
	NecessaryReagent string `json:"necessary_reagent"`
}

// TemplateExtractor is the external template-extraction capability.  Given a
// mapped reaction split into its three segments it returns a generalized
// rule; chemically degenerate or unmappable reactions fail with
// ErrCodeTemplateExtraction.
type TemplateExtractor interface {
	Extract(ctx context.Context, input ExtractionInput) (ExtractionOutput, error)
}

// ValidateMoleculeFormat returns a typed error for unsupported formats.
func ValidateMoleculeFormat(f MoleculeFormat) error {
	if !f.IsValid() {
		return errors.Newf(errors.ErrCodeMoleculeFormatInvalid,
			"molecule format %q is not available: use one of smiles, smarts, molblock", f)
	}
	return nil
}

// ValidateRuleFormat returns a typed error for unsupported rule input formats.
func ValidateRuleFormat(f RuleFormat) error {
	if !f.IsValid() {
		return errors.Newf(errors.ErrCodeRuleFormatInvalid,
			"rule format %q is not available: use one of smiles, smarts, rxn_block", f)
	}
	return nil
}

// ValidateRuleOutputFormat returns a typed error for unsupported rule output
// formats.
func ValidateRuleOutputFormat(f RuleOutputFormat) error {
	if !f.IsValid() {
		return errors.Newf(errors.ErrCodeRuleFormatInvalid,
			"rule output format %q is not available: use one of smiles, smarts, rxn, rxn_blockV2K, rxn_blockV3K", f)
	}
	return nil
}
