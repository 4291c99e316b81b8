package blueprint_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaTree-Curator/internal/domain/blueprint"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/internal/testutil"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// searchLibrary builds two blueprints sharing the Bitertanol reactant but
// with differing products.
func searchLibrary(t *testing.T) []*blueprint.Blueprint {
	t.Helper()

	tplA, err := template.New(testutil.BitertanolMapped)
	require.NoError(t, err)
	tplB, err := template.New(testutil.CarboxyMapped)
	require.NoError(t, err)

	bp1 := &blueprint.Blueprint{
		Components: map[string][]blueprint.ReactionComponent{
			blueprint.RoleReactants: {
				{Name: "Bitertanol", ChemicalClasses: &blueprint.ChemicalClass{Smarts: testutil.BitertanolSMILES}},
			},
			blueprint.RoleProducts: {
				{Name: "1,2,4-triazole", ChemicalClasses: &blueprint.ChemicalClass{Smarts: testutil.TriazoleSMILES}},
			},
		},
		Templates: []template.Template{*tplA},
	}
	require.NoError(t, bp1.Finalize())

	bp2 := &blueprint.Blueprint{
		Components: map[string][]blueprint.ReactionComponent{
			blueprint.RoleReactants: {
				{Name: "Bitertanol", ChemicalClasses: &blueprint.ChemicalClass{Smarts: testutil.BitertanolSMILES}},
			},
			blueprint.RoleProducts: {
				{Name: "carboxy product", ChemicalClasses: &blueprint.ChemicalClass{Smarts: testutil.CarboxySMILES}},
			},
		},
		Templates: []template.Template{*tplB},
	}
	require.NoError(t, bp2.Finalize())

	return []*blueprint.Blueprint{bp1, bp2}
}

func TestSearchReturnsBothInIndexOrder(t *testing.T) {
	tk := testutil.NewBitertanolToolkit()
	library := searchLibrary(t)
	search := blueprint.NewSearch(tk, library, nil)
	require.Equal(t, 2, search.Len())

	matched, err := search.Search(context.Background(), testutil.BitertanolSMILES)
	require.NoError(t, err)
	assert.Equal(t, []string{library[0].UID, library[1].UID}, matched)
}

func TestSearchMatchesSubstructurePattern(t *testing.T) {
	tk := testutil.NewBitertanolToolkit()
	library := searchLibrary(t)
	search := blueprint.NewSearch(tk, library, nil)

	// The triazole ring occurs in every stored molecule of both blueprints.
	matched, err := search.Search(context.Background(), testutil.TriazoleQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{library[0].UID, library[1].UID}, matched)
}

func TestSearchNoMatches(t *testing.T) {
	tk := testutil.NewBitertanolToolkit()
	search := blueprint.NewSearch(tk, searchLibrary(t), nil)

	matched, err := search.Search(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestSearchInvalidQuery(t *testing.T) {
	tk := testutil.NewBitertanolToolkit()
	search := blueprint.NewSearch(tk, searchLibrary(t), nil)

	_, err := search.Search(context.Background(), testutil.BadSMILES)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubstructureSearch))
	assert.True(t, strings.Contains(err.Error(), "Invalid SMILES"), "error should carry the invalid-SMILES indicator: %v", err)
}

func TestSearchFailsFastOnBadIndexedEntry(t *testing.T) {
	tk := testutil.NewBitertanolToolkit()
	library := searchLibrary(t)
	// Poison the first blueprint's leading entry.
	library[0].Components[blueprint.RoleReactants][0].ChemicalClasses.Smarts = testutil.BadSMILES
	search := blueprint.NewSearch(tk, library, nil)

	// The reactant of the second blueprint would match, but the search must
	// abort instead of skipping the broken entry.
	_, err := search.Search(context.Background(), testutil.TriazoleQuery)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubstructureSearch))
}

func TestSearchFromRecords(t *testing.T) {
	tk := testutil.NewBitertanolToolkit()

	records := []map[string]interface{}{
		{
			"uid": "bp-1",
			"components": map[string]interface{}{
				"reactants": []interface{}{
					map[string]interface{}{
						"chemical_classes": map[string]interface{}{"smarts": testutil.BitertanolSMILES},
					},
				},
				"products": []interface{}{
					map[string]interface{}{
						"chemical_classes": map[string]interface{}{"smarts": testutil.TriazoleSMILES},
					},
				},
			},
		},
		{
			"uid": "bp-2",
			"components": map[string]interface{}{
				"reactants": []interface{}{
					map[string]interface{}{
						"chemical_classes": map[string]interface{}{"smarts": testutil.BitertanolSMILES},
					},
				},
				"products": []interface{}{
					map[string]interface{}{
						"chemical_classes": map[string]interface{}{"smarts": testutil.CarboxySMILES},
					},
				},
			},
		},
	}

	search, err := blueprint.NewSearchFromRecords(tk, records, nil)
	require.NoError(t, err)

	matched, err := search.Search(context.Background(), testutil.BitertanolSMILES)
	require.NoError(t, err)
	assert.Equal(t, []string{"bp-1", "bp-2"}, matched)
}

func TestSearchFromRecordsRejectsBadRecord(t *testing.T) {
	tk := testutil.NewBitertanolToolkit()

	_, err := blueprint.NewSearchFromRecords(tk, []map[string]interface{}{
		{"uid": "broken"},
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRecord))
}
