package curation_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaTree-Curator/internal/application/curation"
	"github.com/turtacn/MetaTree-Curator/internal/domain/reaction"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/storage/disk"
	"github.com/turtacn/MetaTree-Curator/internal/testutil"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

type fakeSource struct {
	fetch func(ctx context.Context, packageID string, limit int) ([]*reaction.ChemicalReaction, error)
}

func (s *fakeSource) Name() string { return "envipath-fake" }

func (s *fakeSource) FetchReactions(ctx context.Context, packageID string, limit int) ([]*reaction.ChemicalReaction, error) {
	return s.fetch(ctx, packageID, limit)
}

// soilSource serves the two fixture reactions the way enviPath would: raw
// SMILES, no identities.
func soilSource() *fakeSource {
	return &fakeSource{fetch: func(ctx context.Context, packageID string, limit int) ([]*reaction.ChemicalReaction, error) {
		if packageID != "eawag-soil" {
			return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable, "unknown package %q", packageID)
		}
		batch := []*reaction.ChemicalReaction{
			{
				Name:           "Bitertanol to 1,2,4-triazole",
				UnmappedSMILES: testutil.BitertanolReaction,
				Reactants:      []reaction.Molecule{{SMILES: testutil.BitertanolSMILES}},
				Products:       []reaction.Molecule{{SMILES: testutil.TriazoleSMILES}},
			},
			{
				Name:           "Bitertanol ring carboxylation",
				UnmappedSMILES: testutil.CarboxyReaction,
				Reactants:      []reaction.Molecule{{SMILES: testutil.BitertanolSMILES}},
				Products:       []reaction.Molecule{{SMILES: testutil.CarboxySMILES}},
			},
		}
		if limit > 0 && limit < len(batch) {
			batch = batch[:limit]
		}
		return batch, nil
	}}
}

func newCurator(t *testing.T, source reaction.Source) (*curation.Curator, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := disk.NewStore(dir, nil)
	require.NoError(t, err)
	tk := testutil.NewBitertanolToolkit()
	templates := template.NewService(testutil.NewBitertanolExtractor(), nil)
	cur, err := curation.NewCurator(source, tk, templates, store, nil, nil)
	require.NoError(t, err)
	return cur, dir
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	cur, dir := newCurator(t, soilSource())

	n, err := cur.Download(ctx, "eawag-soil", 0)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	reactions := cur.Reactions()
	require.Len(t, reactions, 2)
	assert.Equal(t, testutil.BitertanolReactionUID, reactions[0].UID)
	assert.Equal(t, testutil.BitertanolReactionCanonical, reactions[0].CanonicalSMILES)
	assert.Equal(t, testutil.CarboxyReactionCanonical, reactions[1].CanonicalSMILES)
	assert.Equal(t, "eawag-soil", reactions[0].Dataset)

	list := cur.MappingList()
	require.Len(t, list, 2)
	assert.Equal(t, testutil.BitertanolReactionCanonical, list[0].InputString)
	assert.Equal(t, testutil.BitertanolReactionUID, list[0].QueryID)

	require.NoError(t, cur.SaveMappingList(ctx, "to_map.json"))

	mapped := []curation.MappedEntry{
		{QueryID: reactions[0].UID, OutputString: testutil.BitertanolMapped},
		{QueryID: reactions[1].UID, OutputString: testutil.CarboxyMapped},
	}
	writeJSON(t, dir, "mapped.json", mapped)

	applied, err := cur.ApplyMappedList(ctx, "mapped.json", curation.MappingFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	extracted, err := cur.ExtractTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, extracted)
	require.NotNil(t, reactions[0].Template)
	assert.Equal(t, testutil.BitertanolTemplateRwd, reactions[0].Template.RwdSMARTS)
	assert.Equal(t, testutil.BitertanolTemplateFwd, reactions[0].Template.FwdSMARTS)
	assert.Equal(t, testutil.BitertanolTemplateUID, reactions[0].Template.UID)

	generated, err := cur.GenerateBlueprints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, generated)
	blueprints := cur.Blueprints()
	require.Len(t, blueprints, 2)
	assert.NotEmpty(t, blueprints[0].UID)
	assert.NotEqual(t, blueprints[0].UID, blueprints[1].UID)

	require.NoError(t, cur.SaveBlueprints(ctx, "blueprints.json"))

	// A fresh curator must recover the identical library from disk.
	offline, _ := newCuratorSharingDir(t, dir)
	require.NoError(t, offline.LoadBlueprints(ctx, "blueprints.json"))
	reloaded := offline.Blueprints()
	require.Len(t, reloaded, 2)
	assert.Equal(t, blueprints[0].UID, reloaded[0].UID)
	assert.Equal(t, blueprints[1].UID, reloaded[1].UID)

	matched, err := offline.SearchBlueprints(ctx, testutil.TriazoleQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{reloaded[0].UID, reloaded[1].UID}, matched)
}

func newCuratorSharingDir(t *testing.T, dir string) (*curation.Curator, string) {
	t.Helper()
	store, err := disk.NewStore(dir, nil)
	require.NoError(t, err)
	tk := testutil.NewBitertanolToolkit()
	templates := template.NewService(testutil.NewBitertanolExtractor(), nil)
	cur, err := curation.NewCurator(nil, tk, templates, store, nil, nil)
	require.NoError(t, err)
	return cur, dir
}

func writeJSON(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	store, err := disk.NewStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveJSON(name, v))
}

func TestDownloadLimit(t *testing.T) {
	cur, _ := newCurator(t, soilSource())

	n, err := cur.Download(context.Background(), "eawag-soil", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, cur.Reactions(), 1)
}

func TestDownloadAccumulatesAcrossPackages(t *testing.T) {
	cur, _ := newCurator(t, soilSource())
	ctx := context.Background()

	_, err := cur.Download(ctx, "eawag-soil", 1)
	require.NoError(t, err)
	_, err = cur.Download(ctx, "eawag-soil", 0)
	require.NoError(t, err)
	assert.Len(t, cur.Reactions(), 3)

	cur.Reset()
	assert.Empty(t, cur.Reactions())
}

func TestDownloadRejectsNegativeLimit(t *testing.T) {
	cur, _ := newCurator(t, soilSource())

	_, err := cur.Download(context.Background(), "eawag-soil", -1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

func TestDownloadWithoutSource(t *testing.T) {
	cur, _ := newCuratorSharingDir(t, t.TempDir())

	_, err := cur.Download(context.Background(), "eawag-soil", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

func TestDownloadSourceFailure(t *testing.T) {
	cur, _ := newCurator(t, soilSource())

	_, err := cur.Download(context.Background(), "no-such-package", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceUnavailable))
}

func TestSaveAndLoadDataset(t *testing.T) {
	ctx := context.Background()
	cur, dir := newCurator(t, soilSource())

	_, err := cur.Download(ctx, "eawag-soil", 0)
	require.NoError(t, err)
	require.NoError(t, cur.SaveDataset(ctx, "dataset.json"))
	want := cur.Reactions()

	offline, _ := newCuratorSharingDir(t, dir)
	require.NoError(t, offline.LoadDataset(ctx, "dataset.json"))
	got := offline.Reactions()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].UID, got[i].UID)
		assert.Equal(t, want[i].CanonicalSMILES, got[i].CanonicalSMILES)
	}
}

func TestLoadDatasetMissingFile(t *testing.T) {
	cur, _ := newCuratorSharingDir(t, t.TempDir())

	err := cur.LoadDataset(context.Background(), "absent.json")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestApplyMappedListSMI(t *testing.T) {
	ctx := context.Background()
	cur, dir := newCurator(t, soilSource())
	_, err := cur.Download(ctx, "eawag-soil", 0)
	require.NoError(t, err)
	reactions := cur.Reactions()

	smi := fmt.Sprintf("%s %s\n\n%s unknown-query-id\nmalformed line with extra fields\n",
		testutil.BitertanolMapped, reactions[0].UID, testutil.CarboxyMapped)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapped.smi"), []byte(smi), 0o644))

	applied, err := cur.ApplyMappedList(ctx, "mapped.smi", curation.MappingFormatSMI)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, testutil.BitertanolMapped, reactions[0].MappedSMILES)
	assert.Empty(t, reactions[1].MappedSMILES)
}

func TestApplyMappedListUnsupportedFormat(t *testing.T) {
	cur, _ := newCurator(t, soilSource())

	_, err := cur.ApplyMappedList(context.Background(), "mapped.xml", curation.MappingFormat("xml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMappingError))
}

func TestExtractTemplatesRequiresMappedSMILES(t *testing.T) {
	ctx := context.Background()
	cur, _ := newCurator(t, soilSource())
	_, err := cur.Download(ctx, "eawag-soil", 1)
	require.NoError(t, err)

	_, err = cur.ExtractTemplates(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTemplateConstruction))
}

func TestGenerateBlueprintsRequiresTemplates(t *testing.T) {
	ctx := context.Background()
	cur, _ := newCurator(t, soilSource())
	_, err := cur.Download(ctx, "eawag-soil", 1)
	require.NoError(t, err)

	_, err = cur.GenerateBlueprints(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingTemplate))
}

func TestNewCuratorValidation(t *testing.T) {
	store, err := disk.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	tk := testutil.NewBitertanolToolkit()
	templates := template.NewService(testutil.NewBitertanolExtractor(), nil)

	_, err = curation.NewCurator(nil, nil, templates, store, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
	_, err = curation.NewCurator(nil, tk, nil, store, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
	_, err = curation.NewCurator(nil, tk, templates, nil, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}
