package testutil

// Curated reaction fixtures from the enviPath Bitertanol soil pathway.  The
// canonical forms and digests below are the reference values the curator is
// expected to reproduce, so tests across packages share one source of truth.
const (
	// BitertanolSMILES is the parent compound as enviPath serves it.
	BitertanolSMILES = "CC(C)(C)C(C(N1C=NC=N1)OC2=CC=C(C=C2)C3=CC=CC=C3)O"
	// BitertanolCanonical is its toolkit-canonical form.
	BitertanolCanonical = "CC(C)(C)C(O)C(Oc1ccc(-c2ccccc2)cc1)n1cncn1"
	// BitertanolUID is the SHA-256 digest of BitertanolSMILES as stored.
	BitertanolUID = "6d5f58846f00b8d185d5c1ed8b048933ee437185cc99bb2f1aa84875474efe9c"

	// TriazoleSMILES is the 1,2,4-triazole transformation product.
	TriazoleSMILES    = "C1=NC=NN1"
	TriazoleCanonical = "c1nc[nH]n1"
	TriazoleUID       = "e424cb24c7ebec8a4410bec6433bafbe658e2ad57fedafeb539cc88745e9bf4a"

	// BitertanolReaction is the raw reaction string, BitertanolReactionCanonical
	// its per-molecule canonical form, and BitertanolReactionUID the digest of
	// the canonical form.
	BitertanolReaction          = BitertanolSMILES + ">>" + TriazoleSMILES
	BitertanolReactionCanonical = BitertanolCanonical + ">>" + TriazoleCanonical
	BitertanolReactionUID       = "d5facac8eb323614c3753b448856e6483e5756646a60d61695ce17936275de73"

	// BitertanolMapped is the atom-mapped reaction the extractor works from.
	BitertanolMapped = "CC(C)(C)C(O)C(Oc1ccc(-c2ccccc2)cc1)[N:1]1[CH:2]=[N:3][CH:4]=[N:5]1>>[NH:1]1[CH:2]=[N:3][CH:4]=[N:5]1"

	// Extractor output for the Bitertanol reaction: the products-side and
	// reactants-side patterns, and the retro-oriented SMARTS built from them.
	BitertanolProductsPattern  = "[#7;a:4]1:[c:5]:[nH;D2;+0:1]:[#7;a:2]:[c:3]:1"
	BitertanolReactantsPattern = "C-C(-C)(-C)-C(-O)-C(-O-c1:c:c:c(-c2:c:c:c:c:c:2):c:c:1)-[n;H0;D3;+0:1]1:[#7;a:2]:[c:3]:[#7;a:4]:[c:5]:1"
	BitertanolTemplateRwd      = BitertanolProductsPattern + ">>" + BitertanolReactantsPattern
	BitertanolTemplateFwd      = BitertanolReactantsPattern + ">>" + BitertanolProductsPattern
	// BitertanolTemplateUID is the digest of BitertanolMapped, the string the
	// template was derived from.
	BitertanolTemplateUID = "03c92b57aecf61227ad1efc3aba9a75e4edc4ecab7791544ead296e25d6ee13d"

	// Second curated reaction sharing the Bitertanol reactant but yielding a
	// carboxylated product, used to exercise multi-blueprint search.
	CarboxySMILES            = "CC(C)(C)C(C(N1C=NC=N1)OC2=CC=C(C=C2)C(=O)O)O"
	CarboxyCanonical         = "CC(C)(C)C(O)C(Oc1ccc(C(=O)O)cc1)n1cncn1"
	CarboxyReaction          = BitertanolSMILES + ">>" + CarboxySMILES
	CarboxyReactionCanonical = BitertanolCanonical + ">>" + CarboxyCanonical
	CarboxyMapped            = "CC(C)(C)C(O)C(O[c:1]1[cH:2][cH:3][c:4](-c2ccccc2)[cH:5][cH:6]1)n1cncn1>>CC(C)(C)C(O)C(O[c:1]1[cH:2][cH:3][c:4](C(=O)O)[cH:5][cH:6]1)n1cncn1"
	CarboxyProductsPattern   = "[C:1]-[c;H0;D3;+0:2](:[c:3]):[c:4]"
	CarboxyReactantsPattern  = "[C:1]-[c;H0;D3;+0:2](-C(=O)-O):[c:3]:[c:4]"
	CarboxyTemplateRwd       = CarboxyProductsPattern + ">>" + CarboxyReactantsPattern
	CarboxyTemplateFwd       = CarboxyReactantsPattern + ">>" + CarboxyProductsPattern

	// TriazoleQuery is a substructure query pattern matching the 1,2,4-triazole
	// ring, present in both Bitertanol and its transformation product.
	TriazoleQuery = "c1ncnn1"

	// BadSMILES never parses; tests use it to provoke toolkit failures.
	BadSMILES = "not-a-molecule"
)

// NewBitertanolToolkit returns a fake toolkit preloaded with the fixture
// chemistry: canonicalization of the Bitertanol and carboxy reactions,
// triazole substructure matches, and the forward-template rule application
// that recovers the triazole product.
func NewBitertanolToolkit() *FakeToolkit {
	tk := NewFakeToolkit()
	tk.SeedCanonical(BitertanolSMILES, BitertanolCanonical)
	tk.SeedCanonical(TriazoleSMILES, TriazoleCanonical)
	tk.SeedCanonical(CarboxySMILES, CarboxyCanonical)
	tk.SeedInvalid(BadSMILES)

	tk.SeedMatch(TriazoleQuery, BitertanolCanonical)
	tk.SeedMatch(TriazoleQuery, TriazoleCanonical)
	tk.SeedMatch(TriazoleQuery, CarboxyCanonical)

	tk.SeedRuleResult(BitertanolTemplateFwd, []string{BitertanolCanonical}, [][]string{{TriazoleCanonical}})
	tk.SeedRuleResult(BitertanolTemplateRwd, []string{TriazoleCanonical}, [][]string{{BitertanolCanonical}})
	tk.SeedRuleResult(CarboxyTemplateFwd, []string{BitertanolCanonical}, [][]string{{CarboxyCanonical}})
	return tk
}

// NewBitertanolExtractor returns a fake extractor that recognizes the mapped
// forms of the two fixture reactions.  Keys are the reactant/product segments
// of the mapped string, which is what template construction hands over.
func NewBitertanolExtractor() *FakeExtractor {
	ex := NewFakeExtractor()
	ex.SeedFromMapped(BitertanolMapped, BitertanolTemplateRwd)
	ex.SeedFromMapped(CarboxyMapped, CarboxyTemplateRwd)
	return ex
}
