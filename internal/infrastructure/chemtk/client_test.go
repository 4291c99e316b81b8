package chemtk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/config"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/chemtk"
	"github.com/turtacn/MetaTree-Curator/internal/testutil"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

func newClient(t *testing.T, url string) *chemtk.Client {
	t.Helper()
	client, err := chemtk.NewClient(config.ChemTkConfig{
		BaseURL:        url,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   time.Millisecond,
	}, nil, nil)
	require.NoError(t, err)
	return client
}

func TestParseMoleculeAndCanonicalize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/molecules/parse", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req struct {
			Input  string `json:"input"`
			Format string `json:"format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testutil.BitertanolSMILES, req.Input)
		assert.Equal(t, "smiles", req.Format)

		json.NewEncoder(w).Encode(map[string]string{"canonical": testutil.BitertanolCanonical})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	mol, err := client.ParseMolecule(context.Background(), testutil.BitertanolSMILES, chem.MoleculeSMILES)
	require.NoError(t, err)
	assert.Equal(t, testutil.BitertanolSMILES, mol.Input())

	canonical, err := client.Canonicalize(context.Background(), mol)
	require.NoError(t, err)
	assert.Equal(t, testutil.BitertanolCanonical, canonical)
}

func TestParseMoleculeRejectsUnknownFormat(t *testing.T) {
	client := newClient(t, "http://localhost:1")

	_, err := client.ParseMolecule(context.Background(), "CCO", chem.MoleculeFormat("inchi"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeFormatInvalid))
}

func TestServerErrorCodePassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "CHEM_003",
			"message": "cannot parse molecule",
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.ParseMolecule(context.Background(), testutil.BadSMILES, chem.MoleculeSMILES)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidMolecule))
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"canonical": "CCO"})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	mol, err := client.ParseMolecule(context.Background(), "OCC", chem.MoleculeSMILES)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	canonical, err := client.Canonicalize(context.Background(), mol)
	require.NoError(t, err)
	assert.Equal(t, "CCO", canonical)
}

func TestRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.ParseMolecule(context.Background(), "CCO", chem.MoleculeSMILES)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestHasSubstructure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/molecules/parse":
			var req struct {
				Input string `json:"input"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]string{"canonical": req.Input})
		case "/api/v1/molecules/substructure":
			var req struct {
				Molecule string `json:"molecule"`
				Pattern  string `json:"pattern"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]bool{"match": req.Pattern == testutil.TriazoleQuery})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	ctx := context.Background()
	mol, err := client.ParseMolecule(ctx, testutil.BitertanolCanonical, chem.MoleculeSMILES)
	require.NoError(t, err)
	pattern, err := client.ParseMolecule(ctx, testutil.TriazoleQuery, chem.MoleculeSMILES)
	require.NoError(t, err)

	ok, err := client.HasSubstructure(ctx, mol, pattern)
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := client.ParseMolecule(ctx, "CCO", chem.MoleculeSMILES)
	require.NoError(t, err)
	ok, err = client.HasSubstructure(ctx, mol, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyRule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/molecules/parse":
			var req struct {
				Input string `json:"input"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]string{"canonical": req.Input})
		case "/api/v1/rules/parse":
			w.WriteHeader(http.StatusOK)
		case "/api/v1/rules/apply":
			var req struct {
				Rule      string   `json:"rule"`
				Molecules []string `json:"molecules"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, testutil.BitertanolTemplateFwd, req.Rule)
			assert.Equal(t, []string{testutil.BitertanolCanonical}, req.Molecules)
			json.NewEncoder(w).Encode(map[string][][]string{
				"results": {{testutil.TriazoleCanonical}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	ctx := context.Background()
	rule, err := client.ParseReactionRule(ctx, testutil.BitertanolTemplateFwd, chem.RuleSMARTS)
	require.NoError(t, err)
	mol, err := client.ParseMolecule(ctx, testutil.BitertanolCanonical, chem.MoleculeSMILES)
	require.NoError(t, err)

	results, err := client.ApplyRule(ctx, rule, []chem.Mol{mol})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0], 1)

	canonical, err := client.Canonicalize(ctx, results[0][0])
	require.NoError(t, err)
	assert.Equal(t, testutil.TriazoleCanonical, canonical)
}

func TestWriteRule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/rules/parse":
			w.WriteHeader(http.StatusOK)
		case "/api/v1/rules/convert":
			var req struct {
				OutputFormat   string `json:"output_format"`
				UseAtomMapping bool   `json:"use_atom_mapping"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "smarts", req.OutputFormat)
			assert.True(t, req.UseAtomMapping)
			json.NewEncoder(w).Encode(map[string]string{"output": testutil.BitertanolTemplateRwd})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	ctx := context.Background()
	rule, err := client.ParseReactionRule(ctx, testutil.BitertanolTemplateRwd, chem.RuleSMARTS)
	require.NoError(t, err)

	out, err := client.WriteRule(ctx, rule, chem.RuleOutSMARTS, true)
	require.NoError(t, err)
	assert.Equal(t, testutil.BitertanolTemplateRwd, out)

	_, err = client.WriteRule(ctx, rule, chem.RuleOutputFormat("cdxml"), false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRuleFormatInvalid))
}

func TestExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/templates/extract", r.URL.Path)
		var in chem.ExtractionInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, testutil.BitertanolTemplateUID, in.ID)

		json.NewEncoder(w).Encode(chem.ExtractionOutput{
			Products:       testutil.BitertanolProductsPattern,
			Reactants:      testutil.BitertanolReactantsPattern,
			ReactionSMARTS: testutil.BitertanolTemplateRwd,
			ReactionID:     in.ID,
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	out, err := client.Extract(context.Background(), chem.ExtractionInput{
		ID:        testutil.BitertanolTemplateUID,
		Products:  "[NH:1]1[CH:2]=[N:3][CH:4]=[N:5]1",
		Reactants: "CC(C)(C)C(O)C(Oc1ccc(-c2ccccc2)cc1)[N:1]1[CH:2]=[N:3][CH:4]=[N:5]1",
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.BitertanolTemplateRwd, out.ReactionSMARTS)
	assert.Equal(t, testutil.BitertanolTemplateUID, out.ReactionID)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, url := range []string{"", "ftp://toolkit", "://bad"} {
		_, err := chemtk.NewClient(config.ChemTkConfig{BaseURL: url}, nil, nil)
		assert.Error(t, err, "url %q should be rejected", url)
	}
}
