package cli

import (
	"github.com/spf13/cobra"
)

// NewBlueprintsCmd creates the blueprints command group: compiling a curated
// dataset into a blueprint library and searching it.
func NewBlueprintsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blueprints",
		Short: "Generate and search blueprint libraries",
	}
	cmd.AddCommand(newGenerateCmd(deps), newSearchCmd(deps))
	return cmd
}

func newGenerateCmd(deps *Dependencies) *cobra.Command {
	var (
		datasetFile string
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile the templated reactions of a dataset into a blueprint library",
		RunE: func(cmd *cobra.Command, args []string) error {
			curator, err := deps.curator(cmd, false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := curator.LoadDataset(ctx, datasetFile); err != nil {
				return err
			}
			generated, err := curator.GenerateBlueprints(ctx)
			if err != nil {
				return err
			}
			if err := curator.SaveBlueprints(ctx, outFile); err != nil {
				return err
			}

			uids := make([]string, 0, generated)
			for _, bp := range curator.Blueprints() {
				uids = append(uids, bp.UID)
			}
			return printJSON(cmd, map[string]interface{}{
				"blueprints": generated,
				"uids":       uids,
				"file":       outFile,
			})
		},
	}

	cmd.Flags().StringVar(&datasetFile, "dataset", "reactions.json", "dataset file name inside the data directory")
	cmd.Flags().StringVar(&outFile, "out", "blueprints.json", "blueprint library file name inside the data directory")

	return cmd
}

func newSearchCmd(deps *Dependencies) *cobra.Command {
	var (
		libraryFile string
		smiles      string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a blueprint library by molecule substructure",
		RunE: func(cmd *cobra.Command, args []string) error {
			curator, err := deps.curator(cmd, false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := curator.LoadBlueprints(ctx, libraryFile); err != nil {
				return err
			}
			matches, err := curator.SearchBlueprints(ctx, smiles)
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]interface{}{
				"query":   smiles,
				"matches": matches,
				"total":   len(matches),
			})
		},
	}

	cmd.Flags().StringVar(&libraryFile, "file", "blueprints.json", "blueprint library file name inside the data directory")
	cmd.Flags().StringVar(&smiles, "smiles", "", "query molecule SMILES (required)")
	cmd.MarkFlagRequired("smiles")

	return cmd
}
