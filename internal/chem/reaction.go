package chem

import (
	"context"
	"strings"

	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// ReactionSeparator divides the reactant side from the product side of a
// reaction string.  ComponentSeparator divides the molecules within a side.
const (
	ReactionSeparator  = ">>"
	ComponentSeparator = "."
)

// SplitReaction splits "A.B>>C" into its reactant and product component
// lists.  The string must contain exactly one reactant/product separator.
func SplitReaction(reaction string) (reactants, products []string, err error) {
	sides := strings.Split(reaction, ReactionSeparator)
	if len(sides) != 2 {
		return nil, nil, errors.Newf(errors.ErrCodeMalformedReaction,
			"reaction string must contain exactly one %q separator, got %d sides", ReactionSeparator, len(sides))
	}
	return splitSide(sides[0]), splitSide(sides[1]), nil
}

func splitSide(side string) []string {
	if side == "" {
		return nil
	}
	return strings.Split(side, ComponentSeparator)
}

// JoinReaction is the inverse of SplitReaction.
func JoinReaction(reactants, products []string) string {
	return strings.Join(reactants, ComponentSeparator) + ReactionSeparator + strings.Join(products, ComponentSeparator)
}

// CanonicalizeMolecule parses a single SMILES string and returns its
// toolkit-canonical form.
func CanonicalizeMolecule(ctx context.Context, tk Toolkit, smiles string) (string, error) {
	mol, err := tk.ParseMolecule(ctx, smiles, MoleculeSMILES)
	if err != nil {
		return "", err
	}
	return tk.Canonicalize(ctx, mol)
}

// CanonicalizeReaction canonicalizes every molecule of a reaction string
// individually, preserving side membership and component order.  Two
// notations of the same reaction therefore canonicalize to the same string
// as long as their components are listed in the same order.
func CanonicalizeReaction(ctx context.Context, tk Toolkit, reaction string) (string, error) {
	reactants, products, err := SplitReaction(reaction)
	if err != nil {
		return "", err
	}
	canonR, err := canonicalizeAll(ctx, tk, reactants)
	if err != nil {
		return "", err
	}
	canonP, err := canonicalizeAll(ctx, tk, products)
	if err != nil {
		return "", err
	}
	return JoinReaction(canonR, canonP), nil
}

func canonicalizeAll(ctx context.Context, tk Toolkit, smiles []string) ([]string, error) {
	out := make([]string, 0, len(smiles))
	for _, s := range smiles {
		canon, err := CanonicalizeMolecule(ctx, tk, s)
		if err != nil {
			return nil, err
		}
		out = append(out, canon)
	}
	return out, nil
}

// ReverseRuleString flips the direction of a rule string by reversing its
// ">"-separated segments, so "products>agents>reactants" becomes
// "reactants>agents>products".  It is a pure string operation and works for
// both two-segment ("A>>B") and three-segment rules.
func ReverseRuleString(rule string) string {
	segments := strings.Split(rule, ">")
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ">")
}

// ConvertRule re-serializes a reaction rule from one notation to another via
// the toolkit.  Atom-map numbers survive only when useAtomMapping is true.
func ConvertRule(ctx context.Context, tk Toolkit, input string, from RuleFormat, to RuleOutputFormat, useAtomMapping bool) (string, error) {
	if err := ValidateRuleFormat(from); err != nil {
		return "", err
	}
	if err := ValidateRuleOutputFormat(to); err != nil {
		return "", err
	}
	rule, err := tk.ParseReactionRule(ctx, input, from)
	if err != nil {
		return "", err
	}
	return tk.WriteRule(ctx, rule, to, useAtomMapping)
}
