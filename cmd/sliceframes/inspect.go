package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sliceframes/pkg/layers"
)

func newInspectCmd(a *app) *cobra.Command {
	var manifest string

	cmd := &cobra.Command{
		Use:   "inspect [layer-dir]",
		Short: "Check a directory of layer files and its optional manifest",
		Long: `Read layer-001.txt, layer-002.txt, ... from a directory and check that
every header range matches its rows and that all layers share one shape.
With --manifest the Parquet manifest must describe exactly those files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Layers.OutputDir
			if len(args) == 1 {
				dir = args[0]
			}
			if !cmd.Flags().Changed("manifest") {
				manifest = a.cfg.Layers.Manifest
			}

			report, err := layers.Verify(dir, manifest)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d layer files (%dx%d), values in [%s, %s]\n",
				len(report.Files), report.Width, report.Height,
				layers.FormatValue(report.Min), layers.FormatValue(report.Max))
			if report.ManifestEntries > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Manifest %s matches (%d entries)\n", manifest, report.ManifestEntries)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "Parquet manifest to check against the layer files")

	return cmd
}
