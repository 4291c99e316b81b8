// Package envipath downloads biodegradation reactions from an enviPath
// instance. A package is fetched in two steps: the package's reaction
// listing first, then the full JSON record of every listed reaction.
package envipath

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MetaTree-Curator/internal/config"
	"github.com/turtacn/MetaTree-Curator/internal/domain/reaction"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

const sourceName = "envipath"

// Connector implements reaction.Source against the enviPath REST API.
type Connector struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	retryMax     int
	retryWaitMin time.Duration
	logger       logging.Logger
}

var _ reaction.Source = (*Connector)(nil)

// NewConnector builds an enviPath connector from configuration.
func NewConnector(cfg config.EnviPathConfig, logger logging.Logger) (*Connector, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "invalid enviPath base URL").WithDetail(cfg.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "enviPath base URL scheme must be http or https").
			WithDetail(cfg.BaseURL)
	}
	retryWaitMin := cfg.RetryBackoff
	if retryWaitMin <= 0 {
		retryWaitMin = time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "metatree-curator/0.1"
	}
	return &Connector{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:    userAgent,
		retryMax:     cfg.MaxRetries,
		retryWaitMin: retryWaitMin,
		logger:       logger.Named("envipath"),
	}, nil
}

// Name identifies this source in logs and metrics.
func (c *Connector) Name() string { return sourceName }

// reactionListing is the package-level reaction index.
type reactionListing struct {
	Reactions []reactionRef `json:"reaction"`
}

type reactionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FetchReactions downloads the reactions of one package. The returned
// records are raw: identities and canonical forms are filled in later by
// the curator.
func (c *Connector) FetchReactions(ctx context.Context, packageID string, limit int) ([]*reaction.ChemicalReaction, error) {
	if limit < 0 {
		return nil, errors.New(errors.ErrCodeInvalidParam, "limit must be positive or zero")
	}
	if strings.TrimSpace(packageID) == "" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "package id must not be empty")
	}

	var listing reactionListing
	listURL := fmt.Sprintf("%s/package/%s/reaction", c.baseURL, packageID)
	if err := c.getJSON(ctx, listURL, &listing); err != nil {
		return nil, err
	}

	refs := listing.Reactions
	if limit > 0 && limit < len(refs) {
		refs = refs[:limit]
	}

	reactions := make([]*reaction.ChemicalReaction, 0, len(refs))
	for _, ref := range refs {
		recordURL, err := c.resolveRef(ref.ID)
		if err != nil {
			return nil, err
		}
		var rxn reaction.ChemicalReaction
		if err := c.getJSON(ctx, recordURL, &rxn); err != nil {
			return nil, err
		}
		if rxn.Name == "" {
			rxn.Name = ref.Name
		}
		reactions = append(reactions, &rxn)
	}

	c.logger.Info("package fetched",
		logging.String("package", packageID),
		logging.Int("reactions", len(reactions)))
	return reactions, nil
}

// resolveRef turns a listing id into a fetchable URL. enviPath lists ids as
// absolute URLs; relative ids are resolved against the configured instance
// so a mirror can serve the same payloads.
func (c *Connector) resolveRef(id string) (string, error) {
	if id == "" {
		return "", errors.New(errors.ErrCodeDataSourceParseError, "reaction listing entry has no id")
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id, nil
	}
	return c.baseURL + "/" + strings.TrimPrefix(id, "/"), nil
}

// getJSON fetches one URL with retries and decodes the JSON response.
func (c *Connector) getJSON(ctx context.Context, fullURL string, result interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.logger.Debug("retrying enviPath request",
				logging.String("url", fullURL),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "enviPath request canceled")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "cannot build enviPath request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", uuid.New().String())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeDataSourceUnavailable,
				"network error while extracting reactions").WithDetail(fullURL)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "cannot read enviPath response")
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = errors.New(errors.ErrCodeDataSourceRateLimited, "enviPath rate limited").WithDetail(fullURL)
			continue
		case resp.StatusCode >= 500:
			lastErr = errors.Newf(errors.ErrCodeDataSourceUnavailable,
				"enviPath returned HTTP %d", resp.StatusCode).WithDetail(fullURL)
			continue
		case resp.StatusCode >= 400:
			return errors.Newf(errors.ErrCodeDataSourceUnavailable,
				"enviPath returned HTTP %d", resp.StatusCode).WithDetail(fullURL)
		}

		if err := json.Unmarshal(body, result); err != nil {
			return errors.Wrap(err, errors.ErrCodeDataSourceParseError,
				"enviPath response is not valid JSON").WithDetail(fullURL)
		}
		return nil
	}
	return lastErr
}

func (c *Connector) backoff(attempt int) time.Duration {
	wait := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(wait)/4 + 1))
	return wait + jitter
}
