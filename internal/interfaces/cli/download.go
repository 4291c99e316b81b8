package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
)

// NewDownloadCmd creates the download command: fetch reaction packages from
// the configured data source, save the dataset and emit the mapping list
// for the external atom mapper.
func NewDownloadCmd(deps *Dependencies) *cobra.Command {
	var (
		packages    []string
		limit       int
		datasetFile string
		mappingFile string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download reaction packages and write the dataset and mapping list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			curator, err := deps.curator(cmd, true)
			if err != nil {
				return err
			}

			if len(packages) == 0 {
				packages = cliCtx.Config.EnviPath.Packages
			}

			ctx := cmd.Context()
			total := 0
			for _, pkg := range packages {
				n, err := curator.Download(ctx, pkg, limit)
				if err != nil {
					return err
				}
				cliCtx.Logger.Info("package downloaded",
					logging.String("package", pkg),
					logging.Int("reactions", n))
				total += n
			}

			if err := curator.SaveDataset(ctx, datasetFile); err != nil {
				return err
			}
			if err := curator.SaveMappingList(ctx, mappingFile); err != nil {
				return err
			}

			return printJSON(cmd, map[string]interface{}{
				"packages":     packages,
				"reactions":    total,
				"dataset":      datasetFile,
				"mapping_list": mappingFile,
			})
		},
	}

	cmd.Flags().StringSliceVar(&packages, "package", nil, "package identifiers to download (default: configured packages)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum reactions per package, 0 for no limit")
	cmd.Flags().StringVar(&datasetFile, "dataset", "reactions.json", "dataset file name inside the data directory")
	cmd.Flags().StringVar(&mappingFile, "mapping-list", "mapping_list.json", "mapping list file name inside the data directory")

	return cmd
}
