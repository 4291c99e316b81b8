package chemtk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Cache is the slice of the redis client the toolkit decorator needs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachingToolkit decorates a chem.Toolkit with memoization of the two
// operations a substructure search repeats heavily: match verdicts and rule
// serializations. Cache failures degrade to calling the inner toolkit.
type CachingToolkit struct {
	inner  chem.Toolkit
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

var _ chem.Toolkit = (*CachingToolkit)(nil)

// NewCachingToolkit wraps inner with a cache. The ttl bounds staleness when
// the sidecar's toolkit version changes.
func NewCachingToolkit(inner chem.Toolkit, cache Cache, ttl time.Duration, logger logging.Logger) *CachingToolkit {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachingToolkit{inner: inner, cache: cache, ttl: ttl, logger: logger.Named("chemtk_cache")}
}

func (c *CachingToolkit) ParseMolecule(ctx context.Context, input string, format chem.MoleculeFormat) (chem.Mol, error) {
	return c.inner.ParseMolecule(ctx, input, format)
}

func (c *CachingToolkit) ParseReactionRule(ctx context.Context, input string, format chem.RuleFormat) (chem.Rule, error) {
	return c.inner.ParseReactionRule(ctx, input, format)
}

func (c *CachingToolkit) Canonicalize(ctx context.Context, mol chem.Mol) (string, error) {
	return c.inner.Canonicalize(ctx, mol)
}

// HasSubstructure memoizes verdicts keyed by the pattern and molecule
// inputs.
func (c *CachingToolkit) HasSubstructure(ctx context.Context, mol, pattern chem.Mol) (bool, error) {
	key := cacheKey("substructure", pattern.Input(), mol.Input())
	var match bool
	if err := c.cache.Get(ctx, key, &match); err == nil {
		return match, nil
	} else if !errors.IsCode(err, errors.ErrCodeNotFound) {
		c.logger.Warn("substructure cache read degraded", logging.Err(err))
	}

	match, err := c.inner.HasSubstructure(ctx, mol, pattern)
	if err != nil {
		return false, err
	}
	if err := c.cache.Set(ctx, key, match, c.ttl); err != nil {
		c.logger.Warn("substructure cache write degraded", logging.Err(err))
	}
	return match, nil
}

func (c *CachingToolkit) ApplyRule(ctx context.Context, rule chem.Rule, mols []chem.Mol) ([][]chem.Mol, error) {
	return c.inner.ApplyRule(ctx, rule, mols)
}

// WriteRule memoizes serializations keyed by the rule input and the
// requested output shape.
func (c *CachingToolkit) WriteRule(ctx context.Context, rule chem.Rule, format chem.RuleOutputFormat, useAtomMapping bool) (string, error) {
	mapped := "plain"
	if useAtomMapping {
		mapped = "mapped"
	}
	key := cacheKey("rule", rule.Input(), string(format), mapped)
	var output string
	if err := c.cache.Get(ctx, key, &output); err == nil {
		return output, nil
	} else if !errors.IsCode(err, errors.ErrCodeNotFound) {
		c.logger.Warn("rule cache read degraded", logging.Err(err))
	}

	output, err := c.inner.WriteRule(ctx, rule, format, useAtomMapping)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, output, c.ttl); err != nil {
		c.logger.Warn("rule cache write degraded", logging.Err(err))
	}
	return output, nil
}

// cacheKey hashes its parts so SMARTS patterns never leak redis key syntax.
func cacheKey(kind string, parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
