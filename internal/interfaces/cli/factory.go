package cli

import (
	"github.com/turtacn/MetaTree-Curator/internal/application/curation"
	"github.com/turtacn/MetaTree-Curator/internal/domain/reaction"
	"github.com/turtacn/MetaTree-Curator/internal/domain/template"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/chemtk"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/datasource/envipath"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/storage/disk"
)

// newCurator wires the production pipeline stack from configuration: the
// chemistry toolkit sidecar client, the dataset directory and, for online
// commands, the enviPath connector.
func newCurator(cliCtx *CLIContext, online bool) (*curation.Curator, error) {
	cfg := cliCtx.Config
	logger := cliCtx.Logger

	toolkit, err := chemtk.NewClient(cfg.ChemTk, nil, logger)
	if err != nil {
		return nil, err
	}

	store, err := disk.NewStore(cfg.Storage.DataDir, logger)
	if err != nil {
		return nil, err
	}

	var source reaction.Source
	if online {
		connector, err := envipath.NewConnector(cfg.EnviPath, logger)
		if err != nil {
			return nil, err
		}
		source = connector
	}

	templates := template.NewService(toolkit, logger)
	return curation.NewCurator(source, toolkit, templates, store, nil, logger)
}
