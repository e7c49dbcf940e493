package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"liscraper/pkg/logger"
	"liscraper/pkg/merge"
	"liscraper/pkg/storage"
	"liscraper/pkg/ui"
)

var mergeLabel string

// mergeCmd combines batch files into one
var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge batch files into a single file",
	Long: `Merge batch files into a single "_all_batches_" file with posts
renumbered from 1 in the order given.

Without file arguments every batch file for --label in the output directory is
merged, oldest first.`,
	Example: `  # Merge explicit files
  liscraper merge output/Jane_Doe_linkedin_posts_20240101_120000.txt output/Jane_Doe_linkedin_posts_20240101_121500.txt

  # Merge every batch file written for a profile
  liscraper merge --label "Jane Doe"`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeLabel, "label", "l", "", "profile label for the merged file (default: the first file's)")
	mergeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config: output)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	flags := scrapeFlags(cmd)
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	store, err := storage.NewManager(cfg.Output.Directory, storage.WithLogger(log))
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		if mergeLabel == "" {
			return errors.New("give the files to merge or --label")
		}
		paths, err = store.BatchArtifacts(mergeLabel)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no batch files for %q in %s", mergeLabel, store.OutputDir())
		}
	}

	path, combined, err := merge.NewAssembler(store, log).Merge(paths, mergeLabel)
	if err != nil {
		return err
	}

	ui.PrintInfo("Merged files", fmt.Sprintf("%d", len(paths)))
	ui.PrintInfo("Posts", fmt.Sprintf("%d", len(combined.Posts)))
	ui.PrintInfo("Output", path)
	ui.PrintSuccess("[MERGE COMPLETED]")
	return nil
}
