// Package curation orchestrates the dataset pipeline: download reactions
// from a pathway database, persist them, round-trip an atom-mapping list
// through an external mapper, extract templates and assemble the blueprint
// library.
package curation

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/domain/blueprint"
	"github.com/turtacn/MetaTree-Curator/internal/domain/reaction"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/storage/disk"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Curator holds one dataset under curation and the collaborators every
// pipeline stage needs. All exported methods are safe for concurrent use.
type Curator struct {
	source    reaction.Source
	toolkit   chem.Toolkit
	templates *template.Service
	store     *disk.Store
	metrics   *prometheus.CuratorMetrics
	logger    logging.Logger

	mu         sync.Mutex
	reactions  []*reaction.ChemicalReaction
	blueprints []*blueprint.Blueprint
}

// NewCurator wires a curator. The source may be nil for offline work on
// previously saved datasets; metrics may be nil to disable instrumentation.
func NewCurator(
	source reaction.Source,
	tk chem.Toolkit,
	templates *template.Service,
	store *disk.Store,
	metrics *prometheus.CuratorMetrics,
	logger logging.Logger,
) (*Curator, error) {
	if tk == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "toolkit must not be nil")
	}
	if templates == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "template service must not be nil")
	}
	if store == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "store must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Curator{
		source:    source,
		toolkit:   tk,
		templates: templates,
		store:     store,
		metrics:   metrics,
		logger:    logger.Named("curation"),
	}, nil
}

// Download fetches one package from the data source, finalizes every
// reaction and appends the batch to the dataset. It returns the number of
// reactions added. A limit of zero means no limit.
func (c *Curator) Download(ctx context.Context, packageID string, limit int) (int, error) {
	if c.source == nil {
		return 0, errors.New(errors.ErrCodeInvalidParam, "no data source configured")
	}
	if limit < 0 {
		return 0, errors.New(errors.ErrCodeInvalidParam, "limit must be positive or zero")
	}

	start := time.Now()
	batch, err := c.source.FetchReactions(ctx, packageID, limit)
	if err != nil {
		if c.metrics != nil {
			c.metrics.DownloadErrorsTotal.WithLabelValues(c.source.Name(), string(errors.GetCode(err))).Inc()
		}
		return 0, errors.Wrap(err, errors.GetCode(err), "error downloading data").WithDetail(packageID)
	}

	for _, rxn := range batch {
		if rxn.Dataset == "" {
			rxn.Dataset = packageID
		}
		if err := rxn.Finalize(ctx, c.toolkit); err != nil {
			return 0, errors.Wrap(err, errors.GetCode(err), "downloaded reaction is not curatable").
				WithDetail(rxn.UnmappedSMILES)
		}
	}

	c.mu.Lock()
	c.reactions = append(c.reactions, batch...)
	total := len(c.reactions)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ReactionsDownloadedTotal.WithLabelValues(c.source.Name(), packageID).Add(float64(len(batch)))
		c.metrics.DownloadDuration.WithLabelValues(c.source.Name()).Observe(time.Since(start).Seconds())
	}
	c.logger.Info("package downloaded",
		logging.String("package", packageID),
		logging.Int("reactions", len(batch)),
		logging.Int("dataset_size", total))
	return len(batch), nil
}

// Reactions returns a snapshot of the dataset.
func (c *Curator) Reactions() []*reaction.ChemicalReaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*reaction.ChemicalReaction, len(c.reactions))
	copy(out, c.reactions)
	return out
}

// Blueprints returns a snapshot of the generated blueprint library.
func (c *Curator) Blueprints() []*blueprint.Blueprint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*blueprint.Blueprint, len(c.blueprints))
	copy(out, c.blueprints)
	return out
}

// Reset discards the in-memory dataset and blueprint library.
func (c *Curator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reactions = nil
	c.blueprints = nil
}

// SaveDataset writes the dataset to one JSON file in the data directory.
func (c *Curator) SaveDataset(ctx context.Context, fileName string) error {
	start := time.Now()
	err := c.store.SaveJSON(fileName, c.Reactions())
	c.observeStore("dataset_save", start)
	if err != nil {
		return errors.Wrap(err, errors.GetCode(err), "error saving data").WithDetail(fileName)
	}
	return nil
}

// LoadDataset replaces the dataset with the reactions read from the given
// files. Records are re-finalized so identities are present even for files
// written by older runs.
func (c *Curator) LoadDataset(ctx context.Context, fileNames ...string) error {
	start := time.Now()
	loaded := make([]*reaction.ChemicalReaction, 0)
	for _, name := range fileNames {
		var batch []*reaction.ChemicalReaction
		if err := c.store.LoadJSON(name, &batch); err != nil {
			return errors.Wrap(err, errors.GetCode(err), "error loading data").WithDetail(name)
		}
		for _, rxn := range batch {
			if err := rxn.Finalize(ctx, c.toolkit); err != nil {
				return errors.Wrap(err, errors.GetCode(err), "stored reaction is not curatable").
					WithDetail(name)
			}
		}
		loaded = append(loaded, batch...)
	}

	c.mu.Lock()
	c.reactions = loaded
	c.mu.Unlock()
	c.observeStore("dataset_load", start)

	c.logger.Info("dataset loaded",
		logging.Int("files", len(fileNames)),
		logging.Int("reactions", len(loaded)))
	return nil
}

// MappingList builds the input for the external atom mapper: one entry per
// reaction holding its canonical SMILES and its uid as the query id.
func (c *Curator) MappingList() []MappingEntry {
	reactions := c.Reactions()
	list := make([]MappingEntry, 0, len(reactions))
	for _, rxn := range reactions {
		list = append(list, MappingEntry{
			InputString: rxn.CanonicalSMILES,
			QueryID:     rxn.UID,
		})
	}
	return list
}

// SaveMappingList writes the mapper input list to one JSON file.
func (c *Curator) SaveMappingList(ctx context.Context, fileName string) error {
	if err := c.store.SaveJSON(fileName, c.MappingList()); err != nil {
		return errors.Wrap(err, errors.ErrCodeMappingError, "error saving mapping list").WithDetail(fileName)
	}
	return nil
}

// ApplyMappedList reads the mapper's output file and merges every mapped
// string into the reaction whose uid matches its query id. It returns the
// number of reactions updated; entries with no matching reaction are
// counted but otherwise ignored.
func (c *Curator) ApplyMappedList(ctx context.Context, fileName string, format MappingFormat) (int, error) {
	if !format.IsValid() {
		return 0, errors.Newf(errors.ErrCodeMappingError, "unsupported mapping format %q", format)
	}

	var mapped []MappedEntry
	switch format {
	case MappingFormatJSON:
		if err := c.store.LoadJSON(fileName, &mapped); err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeMappingError, "error applying mappings").WithDetail(fileName)
		}
	case MappingFormatSMI:
		data, err := c.store.ReadFile(fileName)
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeMappingError, "error applying mappings").WithDetail(fileName)
		}
		mapped, err = ParseMappedSMI(bytes.NewReader(data))
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeMappingError, "error applying mappings").WithDetail(fileName)
		}
	}

	c.mu.Lock()
	byUID := make(map[string]*reaction.ChemicalReaction, len(c.reactions))
	for _, rxn := range c.reactions {
		byUID[rxn.UID] = rxn
	}
	applied, unmatched := 0, 0
	for _, entry := range mapped {
		rxn, ok := byUID[entry.QueryID]
		if !ok {
			unmatched++
			continue
		}
		rxn.MappedSMILES = entry.OutputString
		applied++
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.MappingsAppliedTotal.WithLabelValues("applied").Add(float64(applied))
		c.metrics.MappingsAppliedTotal.WithLabelValues("unmatched").Add(float64(unmatched))
	}
	c.logger.Info("mapped list applied",
		logging.String("file", fileName),
		logging.Int("applied", applied),
		logging.Int("unmatched", unmatched))
	return applied, nil
}

// ExtractTemplates derives a template for every reaction in the dataset
// from its mapped SMILES. The first failing reaction aborts the run.
func (c *Curator) ExtractTemplates(ctx context.Context) (int, error) {
	reactions := c.Reactions()
	source := c.sourceName()
	for _, rxn := range reactions {
		if rxn.MappedSMILES == "" {
			if c.metrics != nil {
				c.metrics.TemplateFailuresTotal.WithLabelValues(source, "unmapped").Inc()
			}
			return 0, errors.New(errors.ErrCodeTemplateConstruction, "reaction has no mapped SMILES").
				WithDetail(rxn.UID)
		}
		tpl, err := c.templates.BuildFromString(ctx, rxn.MappedSMILES)
		if err != nil {
			if c.metrics != nil {
				c.metrics.TemplateFailuresTotal.WithLabelValues(source, string(errors.GetCode(err))).Inc()
			}
			return 0, errors.Wrap(err, errors.GetCode(err), "error extracting templates").WithDetail(rxn.UID)
		}
		rxn.Template = tpl
		if c.metrics != nil {
			c.metrics.TemplatesExtractedTotal.WithLabelValues(source).Inc()
		}
	}
	c.logger.Info("templates extracted", logging.Int("reactions", len(reactions)))
	return len(reactions), nil
}

// GenerateBlueprints assembles one blueprint per reaction and replaces the
// in-memory library. Every reaction must already carry a template.
func (c *Curator) GenerateBlueprints(ctx context.Context) (int, error) {
	reactions := c.Reactions()
	generated := make([]*blueprint.Blueprint, 0, len(reactions))
	for _, rxn := range reactions {
		bp, err := blueprint.FromReaction(rxn)
		if err != nil {
			return 0, errors.Wrap(err, errors.GetCode(err), "error generating blueprints").WithDetail(rxn.UID)
		}
		generated = append(generated, bp)
	}

	c.mu.Lock()
	c.blueprints = generated
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.BlueprintsGeneratedTotal.WithLabelValues(c.sourceName()).Add(float64(len(generated)))
	}
	c.logger.Info("blueprints generated", logging.Int("count", len(generated)))
	return len(generated), nil
}

// SaveBlueprints writes the blueprint library to one JSON file.
func (c *Curator) SaveBlueprints(ctx context.Context, fileName string) error {
	start := time.Now()
	blueprints := c.Blueprints()
	err := c.store.SaveJSON(fileName, blueprints)
	c.observeStore("blueprints_save", start)
	if err != nil {
		return errors.Wrap(err, errors.GetCode(err), "error saving blueprints").WithDetail(fileName)
	}
	if c.metrics != nil {
		c.metrics.BlueprintsStored.WithLabelValues("disk").Set(float64(len(blueprints)))
	}
	return nil
}

// LoadBlueprints replaces the blueprint library with the records read from
// the given files. Records pass the same shape checks as freshly generated
// blueprints.
func (c *Curator) LoadBlueprints(ctx context.Context, fileNames ...string) error {
	start := time.Now()
	loaded := make([]*blueprint.Blueprint, 0)
	for _, name := range fileNames {
		var records []map[string]interface{}
		if err := c.store.LoadJSON(name, &records); err != nil {
			return errors.Wrap(err, errors.GetCode(err), "error loading blueprints").WithDetail(name)
		}
		for i, record := range records {
			bp, err := blueprint.FromRecord(record)
			if err != nil {
				return errors.Wrap(err, errors.GetCode(err),
					fmt.Sprintf("blueprint record %d is not loadable", i)).WithDetail(name)
			}
			loaded = append(loaded, bp)
		}
	}

	c.mu.Lock()
	c.blueprints = loaded
	c.mu.Unlock()
	c.observeStore("blueprints_load", start)

	c.logger.Info("blueprints loaded",
		logging.Int("files", len(fileNames)),
		logging.Int("blueprints", len(loaded)))
	return nil
}

// SearchBlueprints runs a substructure query over the in-memory blueprint
// library and returns the uids of the matching blueprints in library order.
func (c *Curator) SearchBlueprints(ctx context.Context, querySMILES string) ([]string, error) {
	start := time.Now()
	search := blueprint.NewSearch(c.toolkit, c.Blueprints(), c.logger)
	matched, err := search.Search(ctx, querySMILES)
	if c.metrics != nil {
		c.metrics.RecordSearch("curator", len(matched), time.Since(start), err)
	}
	return matched, err
}

func (c *Curator) sourceName() string {
	if c.source == nil {
		return "offline"
	}
	return c.source.Name()
}

func (c *Curator) observeStore(operation string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.StoreDuration.WithLabelValues("disk", operation).Observe(time.Since(start).Seconds())
}
