package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

type fakeMol struct {
	input     string
	canonical string
}

func (m fakeMol) Input() string { return m.input }

type fakeRule struct {
	input string
}

func (r fakeRule) Input() string { return r.input }

// FakeToolkit is a deterministic in-memory chem.Toolkit.  Canonical forms,
// substructure matches and rule results are seeded explicitly; anything not
// seeded has predictable fallback behavior (identity canonicalization, no
// match, rule does not apply).
type FakeToolkit struct {
	mu        sync.Mutex
	canonical map[string]string
	invalid   map[string]bool
	matches   map[string]bool
	rules     map[string][][]string
	ruleText  map[string]string

	// ParseCalls records every molecule string handed to ParseMolecule, in
	// order, so tests can assert on fail-fast behavior.
	ParseCalls []string
}

// NewFakeToolkit returns an empty fake toolkit.
func NewFakeToolkit() *FakeToolkit {
	return &FakeToolkit{
		canonical: make(map[string]string),
		invalid:   make(map[string]bool),
		matches:   make(map[string]bool),
		rules:     make(map[string][][]string),
		ruleText:  make(map[string]string),
	}
}

// SeedCanonical registers the canonical form of a molecule string.  The
// canonical form maps to itself so round trips are stable.
func (f *FakeToolkit) SeedCanonical(input, canonical string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canonical[input] = canonical
	f.canonical[canonical] = canonical
}

// SeedInvalid marks a molecule string as unparseable.
func (f *FakeToolkit) SeedInvalid(input string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalid[input] = true
}

// SeedMatch registers that pattern occurs as a substructure of the molecule
// with the given canonical form.
func (f *FakeToolkit) SeedMatch(pattern, molCanonical string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[pattern+"|"+molCanonical] = true
}

// SeedRuleResult registers the result sets of applying a rule to an ordered
// tuple of canonical reactant strings.
func (f *FakeToolkit) SeedRuleResult(rule string, reactants []string, resultSets [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[rule+"|"+strings.Join(reactants, ".")] = resultSets
}

// SeedRuleText registers the serialized form of a rule for one output format.
func (f *FakeToolkit) SeedRuleText(rule string, format chem.RuleOutputFormat, useAtomMapping bool, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ruleText[ruleTextKey(rule, format, useAtomMapping)] = text
}

func ruleTextKey(rule string, format chem.RuleOutputFormat, useAtomMapping bool) string {
	key := rule + "|" + string(format)
	if useAtomMapping {
		key += "|mapped"
	}
	return key
}

func (f *FakeToolkit) ParseMolecule(ctx context.Context, input string, format chem.MoleculeFormat) (chem.Mol, error) {
	if err := chem.ValidateMoleculeFormat(format); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ParseCalls = append(f.ParseCalls, input)
	if strings.TrimSpace(input) == "" || f.invalid[input] {
		return nil, errors.Newf(errors.ErrCodeInvalidMolecule, "cannot parse molecule %q", input)
	}
	canon, ok := f.canonical[input]
	if !ok {
		canon = input
	}
	return fakeMol{input: input, canonical: canon}, nil
}

func (f *FakeToolkit) ParseReactionRule(ctx context.Context, input string, format chem.RuleFormat) (chem.Rule, error) {
	if err := chem.ValidateRuleFormat(format); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(input) == "" || f.invalid[input] {
		return nil, errors.Newf(errors.ErrCodeInvalidPattern, "cannot compile reaction rule %q", input)
	}
	return fakeRule{input: input}, nil
}

func (f *FakeToolkit) Canonicalize(ctx context.Context, mol chem.Mol) (string, error) {
	m, ok := mol.(fakeMol)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidMolecule, "molecule handle belongs to a different toolkit")
	}
	return m.canonical, nil
}

func (f *FakeToolkit) HasSubstructure(ctx context.Context, mol, pattern chem.Mol) (bool, error) {
	m, ok := mol.(fakeMol)
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidMolecule, "molecule handle belongs to a different toolkit")
	}
	p, ok := pattern.(fakeMol)
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidPattern, "pattern handle belongs to a different toolkit")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.canonical == p.canonical {
		return true, nil
	}
	return f.matches[p.input+"|"+m.canonical], nil
}

func (f *FakeToolkit) ApplyRule(ctx context.Context, rule chem.Rule, mols []chem.Mol) ([][]chem.Mol, error) {
	r, ok := rule.(fakeRule)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPattern, "rule handle belongs to a different toolkit")
	}
	reactants := make([]string, 0, len(mols))
	for _, mol := range mols {
		m, ok := mol.(fakeMol)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidMolecule, "molecule handle belongs to a different toolkit")
		}
		reactants = append(reactants, m.canonical)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sets := f.rules[r.input+"|"+strings.Join(reactants, ".")]
	out := make([][]chem.Mol, 0, len(sets))
	for _, set := range sets {
		products := make([]chem.Mol, 0, len(set))
		for _, smiles := range set {
			products = append(products, fakeMol{input: smiles, canonical: smiles})
		}
		out = append(out, products)
	}
	return out, nil
}

func (f *FakeToolkit) WriteRule(ctx context.Context, rule chem.Rule, format chem.RuleOutputFormat, useAtomMapping bool) (string, error) {
	if err := chem.ValidateRuleOutputFormat(format); err != nil {
		return "", err
	}
	r, ok := rule.(fakeRule)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidPattern, "rule handle belongs to a different toolkit")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if text, ok := f.ruleText[ruleTextKey(r.input, format, useAtomMapping)]; ok {
		return text, nil
	}
	switch format {
	case chem.RuleOutSMILES, chem.RuleOutSMARTS:
		return r.input, nil
	}
	return "", errors.Newf(errors.ErrCodeRuleFormatInvalid, "no %s serialization seeded for rule %q", format, r.input)
}

// FakeExtractor is a deterministic chem.TemplateExtractor keyed by the
// reactants/products pair of the extraction input.
type FakeExtractor struct {
	mu      sync.Mutex
	outputs map[string]chem.ExtractionOutput
}

// NewFakeExtractor returns an empty fake extractor.
func NewFakeExtractor() *FakeExtractor {
	return &FakeExtractor{outputs: make(map[string]chem.ExtractionOutput)}
}

// SeedFromMapped registers the retro-oriented SMARTS for a full mapped
// reaction string of the form reactants>agents>products (or reactants>>products).
func (f *FakeExtractor) SeedFromMapped(mapped, reactionSMARTS string) {
	segments := strings.SplitN(mapped, ">", 3)
	if len(segments) != 3 {
		return
	}
	f.Seed(segments[0], segments[2], reactionSMARTS)
}

// Seed registers the retro-oriented SMARTS the extractor derives for one
// reactants/products pair.
func (f *FakeExtractor) Seed(reactants, products, reactionSMARTS string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[reactants+">>"+products] = chem.ExtractionOutput{
		Products:       products,
		Reactants:      reactants,
		ReactionSMARTS: reactionSMARTS,
	}
}

func (f *FakeExtractor) Extract(ctx context.Context, input chem.ExtractionInput) (chem.ExtractionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, ok := f.outputs[input.Reactants+">>"+input.Products]
	if !ok {
		return chem.ExtractionOutput{}, errors.Newf(errors.ErrCodeTemplateExtraction,
			"no template derivable for reaction %s>>%s", input.Reactants, input.Products)
	}
	out.ReactionID = input.ID
	return out, nil
}
