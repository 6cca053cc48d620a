package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sliceframes/pkg/layers"
	"sliceframes/pkg/progress"
	"sliceframes/pkg/volume"
)

func newLayersCmd(a *app) *cobra.Command {
	var (
		outputDir   string
		header      string
		fixedWidth  int
		fixedHeight int
		manifest    string
	)

	cmd := &cobra.Command{
		Use:   "layers [volume]",
		Short: "Write every slice of a volume stack as a text layer file",
		Long: `Write every slice of a volume stack as layer-NNN.txt.

The volume is a multi-page TIFF file or a directory of slice images. Each
layer file starts with "width height 1 1 min max" followed by the slice rows.
With --header fixed the width and height fields are the constants given by
--fixed-width and --fixed-height instead of the real slice shape.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if len(args) == 1 {
				cfg.Layers.Volume = args[0]
			}

			flags := cmd.Flags()
			if flags.Changed("out") {
				cfg.Layers.OutputDir = outputDir
			}
			if flags.Changed("header") {
				cfg.Layers.Header = header
			}
			if flags.Changed("fixed-width") {
				cfg.Layers.FixedWidth = fixedWidth
			}
			if flags.Changed("fixed-height") {
				cfg.Layers.FixedHeight = fixedHeight
			}
			if flags.Changed("manifest") {
				cfg.Layers.Manifest = manifest
			}

			if cfg.Layers.Volume == "" {
				return errors.New("no volume given")
			}
			if _, err := a.validated(); err != nil {
				return err
			}

			mode, err := layers.ParseHeaderMode(cfg.Layers.Header)
			if err != nil {
				return err
			}

			stack, err := volume.Load(cfg.Layers.Volume)
			if err != nil {
				return err
			}

			s := layers.NewSerializer(&layers.Params{
				OutputDir: cfg.Layers.OutputDir,
				Header: layers.HeaderOptions{
					Mode:        mode,
					FixedWidth:  cfg.Layers.FixedWidth,
					FixedHeight: cfg.Layers.FixedHeight,
					Flag1:       cfg.Layers.Flag1,
					Flag2:       cfg.Layers.Flag2,
				},
				Manifest: cfg.Layers.Manifest,
			})
			bar := progress.New(cmd.ErrOrStderr(), progress.DefaultWidth)
			s.SetProgressCallback(bar.Update)

			res, err := s.Serialize(cmd.Context(), stack)
			if err != nil {
				bar.Done("")
				return err
			}
			bar.Done("")

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d layer files to %s\n", len(res.Files), cfg.Layers.OutputDir)
			if res.Manifest != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Manifest: %s\n", res.Manifest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "out", "o", ".", "Directory receiving the layer files")
	cmd.Flags().StringVar(&header, "header", "derived", "Header dimensions: derived or fixed")
	cmd.Flags().IntVar(&fixedWidth, "fixed-width", 1600, "Width written with --header fixed")
	cmd.Flags().IntVar(&fixedHeight, "fixed-height", 160, "Height written with --header fixed")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Optional Parquet file with per-layer statistics")

	return cmd
}
