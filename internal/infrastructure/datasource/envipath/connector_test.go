package envipath_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaTree-Curator/internal/config"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/datasource/envipath"
	"github.com/turtacn/MetaTree-Curator/internal/testutil"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

const soilPackage = "5882df9c-dae1-4d80-a40e-db4724271456"

// newEnviPathServer serves a package listing with two reactions in the wire
// shape enviPath uses: "smirks" for the reaction string, "educts" for the
// reactants and "ecNumbers" for the enzyme classes.
func newEnviPathServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/package/"+soilPackage+"/reaction", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"reaction": []map[string]string{
				{"id": server.URL + "/reaction/r1", "name": "Bitertanol degradation"},
				{"id": "/reaction/r2", "name": "Bitertanol carboxylation"},
			},
		})
	})
	mux.HandleFunc("/reaction/r1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name":   "Bitertanol degradation",
			"smirks": testutil.BitertanolReaction,
			"educts": []map[string]string{
				{"compoundName": "Bitertanol", "smiles": testutil.BitertanolSMILES},
			},
			"products": []map[string]string{
				{"compoundName": "1,2,4-triazole", "smiles": testutil.TriazoleSMILES},
			},
			"ecNumbers": []map[string]string{
				{"ecName": "monooxygenase", "ecNumber": "1.14.13.-"},
			},
			"multistep": true,
		})
	})
	mux.HandleFunc("/reaction/r2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"smirks": testutil.CarboxyReaction,
		})
	})

	server = httptest.NewServer(mux)
	return server
}

func newConnector(t *testing.T, baseURL string) *envipath.Connector {
	t.Helper()
	conn, err := envipath.NewConnector(config.EnviPathConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return conn
}

func TestFetchReactions(t *testing.T) {
	server := newEnviPathServer(t)
	defer server.Close()
	conn := newConnector(t, server.URL)

	reactions, err := conn.FetchReactions(context.Background(), soilPackage, 0)
	require.NoError(t, err)
	require.Len(t, reactions, 2)

	first := reactions[0]
	assert.Equal(t, "Bitertanol degradation", first.Name)
	assert.Equal(t, testutil.BitertanolReaction, first.UnmappedSMILES)
	require.Len(t, first.Reactants, 1)
	assert.Equal(t, "Bitertanol", first.Reactants[0].Name)
	assert.Equal(t, testutil.BitertanolSMILES, first.Reactants[0].SMILES)
	require.Len(t, first.EnzymeClasses, 1)
	assert.Equal(t, "monooxygenase", first.EnzymeClasses[0].Name)
	assert.Equal(t, "1.14.13.-", first.EnzymeClasses[0].Number)
	assert.True(t, first.MultistepFlag)

	// The second record has no name of its own, so the listing name sticks.
	assert.Equal(t, "Bitertanol carboxylation", reactions[1].Name)
	assert.Equal(t, testutil.CarboxyReaction, reactions[1].UnmappedSMILES)
}

func TestFetchReactionsLimit(t *testing.T) {
	server := newEnviPathServer(t)
	defer server.Close()
	conn := newConnector(t, server.URL)

	reactions, err := conn.FetchReactions(context.Background(), soilPackage, 1)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, testutil.BitertanolReaction, reactions[0].UnmappedSMILES)
}

func TestFetchReactionsValidation(t *testing.T) {
	conn := newConnector(t, "http://localhost:1")

	_, err := conn.FetchReactions(context.Background(), soilPackage, -1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = conn.FetchReactions(context.Background(), "  ", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

func TestFetchReactionsUnknownPackage(t *testing.T) {
	server := newEnviPathServer(t)
	defer server.Close()
	conn := newConnector(t, server.URL)

	_, err := conn.FetchReactions(context.Background(), "no-such-package", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceUnavailable))
}

func TestFetchReactionsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()
	conn := newConnector(t, server.URL)

	_, err := conn.FetchReactions(context.Background(), soilPackage, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))
}

func TestFetchReactionsRetriesServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"reaction": []map[string]string{}})
	}))
	defer server.Close()
	conn := newConnector(t, server.URL)

	reactions, err := conn.FetchReactions(context.Background(), soilPackage, 0)
	require.NoError(t, err)
	assert.Empty(t, reactions)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchReactionsRateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	conn := newConnector(t, server.URL)

	_, err := conn.FetchReactions(context.Background(), soilPackage, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceRateLimited))
}

func TestNewConnectorRejectsBadURL(t *testing.T) {
	for _, url := range []string{"", "ftp://envipath.org"} {
		_, err := envipath.NewConnector(config.EnviPathConfig{BaseURL: url}, nil)
		assert.Error(t, err, "url %q should be rejected", url)
	}
}
