// Package chemtk talks to the chemistry toolkit sidecar over HTTP. The
// sidecar owns every cheminformatics operation the curator needs:
// canonicalization, substructure matching, rule application, rule format
// conversion and template extraction.
package chemtk

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/config"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

const defaultUserAgent = "metatree-curator/0.1"

// httpMol is a molecule handle resolved by the sidecar. The canonical form
// is fetched once at parse time.
type httpMol struct {
	input     string
	canonical string
}

func (m *httpMol) Input() string { return m.input }

// httpRule is a reaction rule the sidecar has validated.
type httpRule struct {
	input  string
	format chem.RuleFormat
}

func (r *httpRule) Input() string { return r.input }

// Client implements chem.Toolkit and chem.TemplateExtractor against the
// sidecar's REST API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	metrics      *prometheus.CuratorMetrics
	logger       logging.Logger
}

var (
	_ chem.Toolkit           = (*Client)(nil)
	_ chem.TemplateExtractor = (*Client)(nil)
)

// NewClient builds a sidecar client from configuration. Metrics may be nil.
func NewClient(cfg config.ChemTkConfig, metrics *prometheus.CuratorMetrics, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "invalid toolkit base URL").WithDetail(cfg.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "toolkit base URL scheme must be http or https").
			WithDetail(cfg.BaseURL)
	}

	retryWaitMin := cfg.RetryBackoff
	if retryWaitMin <= 0 {
		retryWaitMin = 500 * time.Millisecond
	}
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:    defaultUserAgent,
		retryMax:     cfg.MaxRetries,
		retryWaitMin: retryWaitMin,
		retryWaitMax: 10 * retryWaitMin,
		metrics:      metrics,
		logger:       logger.Named("chemtk"),
	}, nil
}

type parseMoleculeRequest struct {
	Input  string `json:"input"`
	Format string `json:"format"`
}

type parseMoleculeResponse struct {
	Canonical string `json:"canonical"`
}

// ParseMolecule validates the input on the sidecar and returns a handle
// carrying its canonical SMILES.
func (c *Client) ParseMolecule(ctx context.Context, input string, format chem.MoleculeFormat) (chem.Mol, error) {
	if err := chem.ValidateMoleculeFormat(format); err != nil {
		return nil, err
	}
	start := time.Now()
	var resp parseMoleculeResponse
	err := c.do(ctx, "/api/v1/molecules/parse", parseMoleculeRequest{Input: input, Format: string(format)}, &resp)
	c.observe("parse_molecule", start, err)
	if err != nil {
		return nil, err
	}
	return &httpMol{input: input, canonical: resp.Canonical}, nil
}

type parseRuleRequest struct {
	Input  string `json:"input"`
	Format string `json:"format"`
}

// ParseReactionRule validates a reaction rule on the sidecar.
func (c *Client) ParseReactionRule(ctx context.Context, input string, format chem.RuleFormat) (chem.Rule, error) {
	if err := chem.ValidateRuleFormat(format); err != nil {
		return nil, err
	}
	start := time.Now()
	err := c.do(ctx, "/api/v1/rules/parse", parseRuleRequest{Input: input, Format: string(format)}, nil)
	c.observe("parse_rule", start, err)
	if err != nil {
		return nil, err
	}
	return &httpRule{input: input, format: format}, nil
}

// Canonicalize returns the canonical SMILES resolved when the molecule was
// parsed.
func (c *Client) Canonicalize(ctx context.Context, mol chem.Mol) (string, error) {
	m, ok := mol.(*httpMol)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidMolecule, "molecule handle belongs to a different toolkit")
	}
	return m.canonical, nil
}

type substructureRequest struct {
	Molecule string `json:"molecule"`
	Pattern  string `json:"pattern"`
}

type substructureResponse struct {
	Match bool `json:"match"`
}

// HasSubstructure asks the sidecar whether pattern occurs in mol.
func (c *Client) HasSubstructure(ctx context.Context, mol, pattern chem.Mol) (bool, error) {
	m, ok := mol.(*httpMol)
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidMolecule, "molecule handle belongs to a different toolkit")
	}
	p, ok := pattern.(*httpMol)
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidPattern, "pattern handle belongs to a different toolkit")
	}
	start := time.Now()
	var resp substructureResponse
	err := c.do(ctx, "/api/v1/molecules/substructure", substructureRequest{Molecule: m.canonical, Pattern: p.input}, &resp)
	c.observe("substructure", start, err)
	if err != nil {
		return false, err
	}
	return resp.Match, nil
}

type applyRuleRequest struct {
	Rule       string   `json:"rule"`
	RuleFormat string   `json:"rule_format"`
	Molecules  []string `json:"molecules"`
}

type applyRuleResponse struct {
	// Results holds one product set per way the rule matched, canonical
	// SMILES throughout.
	Results [][]string `json:"results"`
}

// ApplyRule runs a reaction rule over an ordered tuple of molecules.
func (c *Client) ApplyRule(ctx context.Context, rule chem.Rule, mols []chem.Mol) ([][]chem.Mol, error) {
	r, ok := rule.(*httpRule)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPattern, "rule handle belongs to a different toolkit")
	}
	molecules := make([]string, 0, len(mols))
	for _, mol := range mols {
		m, ok := mol.(*httpMol)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidMolecule, "molecule handle belongs to a different toolkit")
		}
		molecules = append(molecules, m.canonical)
	}

	start := time.Now()
	var resp applyRuleResponse
	err := c.do(ctx, "/api/v1/rules/apply", applyRuleRequest{
		Rule:       r.input,
		RuleFormat: string(r.format),
		Molecules:  molecules,
	}, &resp)
	c.observe("apply_rule", start, err)
	if err != nil {
		return nil, err
	}

	out := make([][]chem.Mol, 0, len(resp.Results))
	for _, set := range resp.Results {
		converted := make([]chem.Mol, 0, len(set))
		for _, smiles := range set {
			converted = append(converted, &httpMol{input: smiles, canonical: smiles})
		}
		out = append(out, converted)
	}
	return out, nil
}

type writeRuleRequest struct {
	Rule           string `json:"rule"`
	RuleFormat     string `json:"rule_format"`
	OutputFormat   string `json:"output_format"`
	UseAtomMapping bool   `json:"use_atom_mapping"`
}

type writeRuleResponse struct {
	Output string `json:"output"`
}

// WriteRule serializes a rule into the requested output format.
func (c *Client) WriteRule(ctx context.Context, rule chem.Rule, format chem.RuleOutputFormat, useAtomMapping bool) (string, error) {
	if err := chem.ValidateRuleOutputFormat(format); err != nil {
		return "", err
	}
	r, ok := rule.(*httpRule)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidPattern, "rule handle belongs to a different toolkit")
	}
	start := time.Now()
	var resp writeRuleResponse
	err := c.do(ctx, "/api/v1/rules/convert", writeRuleRequest{
		Rule:           r.input,
		RuleFormat:     string(r.format),
		OutputFormat:   string(format),
		UseAtomMapping: useAtomMapping,
	}, &resp)
	c.observe("write_rule", start, err)
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

// Extract runs template extraction on the sidecar.
func (c *Client) Extract(ctx context.Context, input chem.ExtractionInput) (chem.ExtractionOutput, error) {
	start := time.Now()
	var out chem.ExtractionOutput
	err := c.do(ctx, "/api/v1/templates/extract", input, &out)
	c.observe("extract_template", start, err)
	if err != nil {
		return chem.ExtractionOutput{}, err
	}
	return out, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do POSTs a JSON body and decodes the JSON response, retrying transient
// failures with jittered exponential backoff.
func (c *Client) do(ctx context.Context, path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot marshal toolkit request")
	}
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.logger.Debug("retrying toolkit request",
				logging.String("path", path),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "toolkit request canceled")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "cannot build toolkit request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", uuid.New().String())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeExternalService, "toolkit request failed").WithDetail(path)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeExternalService, "cannot read toolkit response")
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = errors.New(errors.ErrCodeExternalService, "toolkit rate limited").WithDetail(path)
			if wait := retryAfter(resp); wait > 0 && attempt < c.retryMax {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "toolkit request canceled")
				}
			}
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = errors.Newf(errors.ErrCodeExternalService, "toolkit returned HTTP %d", resp.StatusCode).
				WithDetail(path)
			continue
		}
		if resp.StatusCode >= 400 {
			return c.decodeError(resp.StatusCode, respBody, path)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return errors.Wrap(err, errors.ErrCodeDataSourceParseError, "cannot decode toolkit response").
					WithDetail(path)
			}
		}
		return nil
	}
	return lastErr
}

// decodeError turns a 4xx response into an AppError. The sidecar reports
// errors in the curator's own code vocabulary; unknown shapes degrade to a
// generic external-service error.
func (c *Client) decodeError(status int, body []byte, path string) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Code != "" {
		return errors.New(errors.ErrorCode(er.Code), er.Message).WithDetail(path)
	}
	return errors.Newf(errors.ErrCodeExternalService, "toolkit returned HTTP %d", status).
		WithDetail(strings.TrimSpace(string(body)))
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if wait > c.retryWaitMax {
		wait = c.retryWaitMax
	}
	jitter := time.Duration(rand.Int63n(int64(wait)/4 + 1))
	return wait + jitter
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordToolkitCall(operation, time.Since(start), err)
}
