package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/MetaTree-Curator/internal/application/curation"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// NewCurateCmd creates the curate command group: merging mapper output back
// into a saved dataset and extracting reaction templates.
func NewCurateCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Merge atom-mapper output and extract reaction templates",
	}
	cmd.AddCommand(newApplyMappingCmd(deps), newExtractCmd(deps))
	return cmd
}

func newApplyMappingCmd(deps *Dependencies) *cobra.Command {
	var (
		datasetFile string
		mappedFile  string
		format      string
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "apply-mapping",
		Short: "Merge mapped reaction strings from the external mapper into a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingFormat := curation.MappingFormat(format)
			if !mappingFormat.IsValid() {
				return errors.Newf(errors.ErrCodeMappingError, "unsupported mapping format %q, expected json or smi", format)
			}

			curator, err := deps.curator(cmd, false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := curator.LoadDataset(ctx, datasetFile); err != nil {
				return err
			}
			applied, err := curator.ApplyMappedList(ctx, mappedFile, mappingFormat)
			if err != nil {
				return err
			}
			if outFile == "" {
				outFile = datasetFile
			}
			if err := curator.SaveDataset(ctx, outFile); err != nil {
				return err
			}

			return printJSON(cmd, map[string]interface{}{
				"applied": applied,
				"dataset": outFile,
			})
		},
	}

	cmd.Flags().StringVar(&datasetFile, "dataset", "reactions.json", "dataset file name inside the data directory")
	cmd.Flags().StringVar(&mappedFile, "file", "", "mapped output file name inside the data directory (required)")
	cmd.Flags().StringVar(&format, "format", "json", "mapped file format: json or smi")
	cmd.Flags().StringVar(&outFile, "out", "", "output dataset file name (default: overwrite --dataset)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newExtractCmd(deps *Dependencies) *cobra.Command {
	var (
		datasetFile string
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract reaction templates from the mapped reactions of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			curator, err := deps.curator(cmd, false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := curator.LoadDataset(ctx, datasetFile); err != nil {
				return err
			}
			extracted, err := curator.ExtractTemplates(ctx)
			if err != nil {
				return err
			}
			if outFile == "" {
				outFile = datasetFile
			}
			if err := curator.SaveDataset(ctx, outFile); err != nil {
				return err
			}

			return printJSON(cmd, map[string]interface{}{
				"templates": extracted,
				"dataset":   outFile,
			})
		},
	}

	cmd.Flags().StringVar(&datasetFile, "dataset", "reactions.json", "dataset file name inside the data directory")
	cmd.Flags().StringVar(&outFile, "out", "", "output dataset file name (default: overwrite --dataset)")

	return cmd
}
