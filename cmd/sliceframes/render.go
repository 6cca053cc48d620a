package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sliceframes/pkg/progress"
	"sliceframes/pkg/visualization"
	"sliceframes/pkg/volume"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		axis      string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "render [volume]",
		Short: "Render the planes of a volume stack as PNG frames",
		Long: `Render every plane of a volume stack along the x, y or z axis as a
16-bit grey PNG, normalised over the whole volume. The frames are named
slice_<axis>_NNN.png so they can be assembled with "sliceframes video".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if len(args) == 1 {
				cfg.Layers.Volume = args[0]
			}

			flags := cmd.Flags()
			if flags.Changed("axis") {
				cfg.Render.Axis = axis
			}
			if flags.Changed("out") {
				cfg.Render.OutputDir = outputDir
			}

			if cfg.Layers.Volume == "" {
				return errors.New("no volume given")
			}
			if _, err := a.validated(); err != nil {
				return err
			}

			stack, err := volume.Load(cfg.Layers.Volume)
			if err != nil {
				return err
			}

			viewer, err := visualization.NewViewer(stack)
			if err != nil {
				return err
			}

			bar := progress.New(cmd.ErrOrStderr(), progress.DefaultWidth)
			paths, err := viewer.SaveSliceSequence(strings.ToLower(cfg.Render.Axis), cfg.Render.OutputDir, bar.Update)
			if err != nil {
				bar.Done("")
				return err
			}
			bar.Done("")

			w, h, d := viewer.Dims()
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d %s-axis frames of a %dx%dx%d volume to %s\n",
				len(paths), cfg.Render.Axis, w, h, d, cfg.Render.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&axis, "axis", "z", "Axis to slice along: x, y or z")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "frames", "Directory receiving the PNG frames")

	return cmd
}
