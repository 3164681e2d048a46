package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/models"
)

var exportDryRun bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one export from the configured row source directory",
	Long: `Load row batches from the row source directory, run the full export
pipeline and write the artifacts and manifest to the output directory.
Exits non-zero when the run aborts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer app.close(ctx)

		sources, err := app.loader.Load(ctx)
		if err != nil {
			return err
		}

		run := app.exporter.Run
		if exportDryRun {
			run = app.exporter.DryRun
		}

		manifest, runErr := run(ctx, sources)
		if manifest != nil {
			fmt.Printf("run %s: %s\n", manifest.RunID, manifest.State)
			for _, result := range manifest.Entities {
				line := fmt.Sprintf("  %s: %d valid, %d rejected", result.Entity, result.ValidCount, result.ErrorCount)
				if result.Artifact != nil {
					line += fmt.Sprintf(" -> %s (%s)", result.Artifact.Path, result.Artifact.SHA256[:12])
				}
				fmt.Println(line)
			}
			if manifest.ContentHash != "" {
				fmt.Printf("content hash: %s\n", manifest.ContentHash)
			}
		}
		if runErr != nil {
			fmt.Fprintln(os.Stderr, runErr)
			os.Exit(1)
		}
		if manifest != nil && manifest.State != models.RunStateDone {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "validate and assign IDs without writing artifacts")
}
