package blueprint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaTree-Curator/internal/domain/blueprint"
	"github.com/turtacn/MetaTree-Curator/internal/domain/reaction"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/internal/testutil"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// curatedReaction returns a finalized Bitertanol reaction with its template
// attached, the normal input to blueprint construction.
func curatedReaction(t *testing.T) *reaction.ChemicalReaction {
	t.Helper()
	ctx := context.Background()

	rxn := &reaction.ChemicalReaction{
		Name:           "Bitertanol to 1,2,4-triazole",
		Description:    "soil degradation step",
		UnmappedSMILES: testutil.BitertanolReaction,
		MappedSMILES:   testutil.BitertanolMapped,
		Reactants: []reaction.Molecule{
			{Name: "Bitertanol", SMILES: testutil.BitertanolSMILES},
		},
		Products: []reaction.Molecule{
			{Name: "1,2,4-triazole", SMILES: testutil.TriazoleSMILES},
		},
	}
	require.NoError(t, rxn.Finalize(ctx, testutil.NewBitertanolToolkit()))

	svc := template.NewService(testutil.NewBitertanolExtractor(), nil)
	tpl, err := svc.BuildFromString(ctx, rxn.MappedSMILES)
	require.NoError(t, err)
	rxn.Template = tpl
	return rxn
}

func TestFromReaction(t *testing.T) {
	rxn := curatedReaction(t)

	bp, err := blueprint.FromReaction(rxn)
	require.NoError(t, err)

	assert.Equal(t, rxn.Name, bp.Name)
	assert.Equal(t, rxn.Description, bp.Description)
	require.Len(t, bp.Templates, 1)
	assert.Equal(t, testutil.BitertanolTemplateUID, bp.Templates[0].UID)
	assert.NotEmpty(t, bp.UID)

	reactants := bp.Components[blueprint.RoleReactants]
	require.Len(t, reactants, 1)
	assert.Equal(t, "Bitertanol", reactants[0].Name)
	require.NotNil(t, reactants[0].ChemicalClasses)
	assert.Equal(t, testutil.BitertanolSMILES, reactants[0].ChemicalClasses.Smarts)

	products := bp.Components[blueprint.RoleProducts]
	require.Len(t, products, 1)
	assert.Equal(t, testutil.TriazoleSMILES, products[0].ChemicalClasses.Smarts)
}

func TestFromReactionRequiresTemplate(t *testing.T) {
	rxn := curatedReaction(t)
	rxn.Template = nil

	_, err := blueprint.FromReaction(rxn)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingTemplate))
}

func TestUIDOrderIndependence(t *testing.T) {
	tplA, err := template.New(testutil.BitertanolMapped)
	require.NoError(t, err)
	tplB, err := template.New(testutil.CarboxyMapped)
	require.NoError(t, err)

	ab := &blueprint.Blueprint{Templates: []template.Template{*tplA, *tplB}}
	ba := &blueprint.Blueprint{Templates: []template.Template{*tplB, *tplA}}

	uidAB, err := ab.ComputeUID()
	require.NoError(t, err)
	uidBA, err := ba.ComputeUID()
	require.NoError(t, err)
	assert.Equal(t, uidAB, uidBA)

	// Changing any template changes the identity.
	onlyA := &blueprint.Blueprint{Templates: []template.Template{*tplA}}
	uidA, err := onlyA.ComputeUID()
	require.NoError(t, err)
	assert.NotEqual(t, uidAB, uidA)
}

func TestComputeUIDRequiresTemplates(t *testing.T) {
	bp := &blueprint.Blueprint{}
	_, err := bp.ComputeUID()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingTemplate))
}

func TestBothConstructionPathsConverge(t *testing.T) {
	rxn := curatedReaction(t)

	derived, err := blueprint.FromReaction(rxn)
	require.NoError(t, err)

	direct := &blueprint.Blueprint{
		Components: derived.Components,
		Templates:  derived.Templates,
		Name:       derived.Name,
	}
	require.NoError(t, direct.Finalize())
	assert.Equal(t, derived.UID, direct.UID)
}

func TestFromRecord(t *testing.T) {
	record := map[string]interface{}{
		"uid":  "record-uid",
		"name": "recorded blueprint",
		"components": map[string]interface{}{
			"reactants": []interface{}{
				map[string]interface{}{
					"name": "Bitertanol",
					"chemical_classes": map[string]interface{}{
						"name":   "Bitertanol",
						"smarts": testutil.BitertanolSMILES,
					},
				},
			},
			"products": []interface{}{
				map[string]interface{}{
					"name": "1,2,4-triazole",
					"chemical_classes": map[string]interface{}{
						"name":   "1,2,4-triazole",
						"smarts": testutil.TriazoleSMILES,
					},
				},
			},
		},
	}

	bp, err := blueprint.FromRecord(record)
	require.NoError(t, err)
	assert.Equal(t, "record-uid", bp.UID)
	assert.Equal(t, []string{testutil.BitertanolSMILES}, bp.ComponentSmarts(blueprint.RoleReactants))
	assert.Equal(t, []string{testutil.TriazoleSMILES}, bp.ComponentSmarts(blueprint.RoleProducts))
}

func TestFromRecordComputesMissingUID(t *testing.T) {
	record := map[string]interface{}{
		"components": map[string]interface{}{
			"reactants": []interface{}{},
			"products":  []interface{}{},
		},
		"templates": []interface{}{
			map[string]interface{}{
				"reaction_string": testutil.BitertanolMapped,
				"uid":             testutil.BitertanolTemplateUID,
			},
		},
	}

	bp, err := blueprint.FromRecord(record)
	require.NoError(t, err)
	assert.NotEmpty(t, bp.UID)
}

func TestFromRecordRejectsBadShape(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]interface{}
	}{
		{
			name:   "missing components",
			record: map[string]interface{}{"uid": "x"},
		},
		{
			name: "missing reactants role",
			record: map[string]interface{}{
				"uid": "x",
				"components": map[string]interface{}{
					"products": []interface{}{},
				},
			},
		},
		{
			name: "wrong component type",
			record: map[string]interface{}{
				"uid":        "x",
				"components": "not-a-map",
			},
		},
		{
			name: "no identity and no templates",
			record: map[string]interface{}{
				"components": map[string]interface{}{
					"reactants": []interface{}{},
					"products":  []interface{}{},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := blueprint.FromRecord(tt.record)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRecord), "got %v", err)
		})
	}
}
