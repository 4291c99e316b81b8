package template_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/internal/testutil"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

func TestBuildFromString(t *testing.T) {
	svc := template.NewService(testutil.NewBitertanolExtractor(), nil)

	tpl, err := svc.BuildFromString(context.Background(), testutil.BitertanolMapped)
	require.NoError(t, err)

	assert.Equal(t, testutil.BitertanolMapped, tpl.ReactionString)
	assert.Equal(t, testutil.BitertanolTemplateUID, tpl.UID)
	assert.Equal(t, testutil.BitertanolTemplateRwd, tpl.RwdSMARTS)
	assert.Equal(t, testutil.BitertanolTemplateFwd, tpl.FwdSMARTS)
	assert.True(t, strings.HasPrefix(tpl.RwdSMARTS, testutil.BitertanolProductsPattern+">>"))
	assert.Equal(t, testutil.BitertanolProductsPattern, tpl.ProductsTemplate)
	assert.Equal(t, testutil.BitertanolReactantsPattern, tpl.ReactantsTemplate)
}

func TestBuildFromStringReversalLaw(t *testing.T) {
	svc := template.NewService(testutil.NewBitertanolExtractor(), nil)

	tpl, err := svc.BuildFromString(context.Background(), testutil.BitertanolMapped)
	require.NoError(t, err)

	assert.Equal(t, tpl.RwdSMARTS, chem.ReverseRuleString(tpl.FwdSMARTS))
}

func TestBuildFromStringValidation(t *testing.T) {
	svc := template.NewService(testutil.NewBitertanolExtractor(), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		wantCode errors.ErrorCode
	}{
		{
			name:     "empty input",
			input:    "",
			wantCode: errors.ErrCodeEmptyInput,
		},
		{
			name:     "no separators",
			input:    "CCO",
			wantCode: errors.ErrCodeMalformedReaction,
		},
		{
			name:     "too many segments",
			input:    "A>B>C>D",
			wantCode: errors.ErrCodeMalformedReaction,
		},
		{
			name:     "empty product side",
			input:    "CCO>>",
			wantCode: errors.ErrCodeMalformedReaction,
		},
		{
			name:     "empty reactant side",
			input:    ">>CCO",
			wantCode: errors.ErrCodeMalformedReaction,
		},
		{
			name:     "extractor cannot derive a rule",
			input:    "CCO>>CC=O",
			wantCode: errors.ErrCodeTemplateExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BuildFromString(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestNewTemplateUID(t *testing.T) {
	tpl, err := template.New(testutil.BitertanolMapped)
	require.NoError(t, err)
	assert.Equal(t, testutil.BitertanolTemplateUID, tpl.UID)

	again, err := template.New(testutil.BitertanolMapped)
	require.NoError(t, err)
	assert.Equal(t, tpl.UID, again.UID)

	other, err := template.New(testutil.CarboxyMapped)
	require.NoError(t, err)
	assert.NotEqual(t, tpl.UID, other.UID)
}
