package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sliceframes/pkg/frames"
	"sliceframes/pkg/progress"
	"sliceframes/pkg/video"
)

func newVideoCmd(a *app) *cobra.Command {
	var (
		name    string
		output  string
		suffix  string
		order   string
		fps     int
		quality int
	)

	cmd := &cobra.Command{
		Use:   "video [image-dir]",
		Short: "Assemble the images of a directory into an MJPEG AVI video",
		Long: `Assemble every image of a directory into one MJPEG AVI video.

Images are selected by suffix and ordered by file name, either byte-wise
(lexical) or by the number in the name (numeric). The first image defines the
frame size; an image of a different size aborts the run. Without --output the
video is written next to the images as <name>.avi.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if len(args) == 1 {
				cfg.Video.InputDir = args[0]
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				cfg.Video.Name = name
			}
			if flags.Changed("output") {
				cfg.Video.Output = output
			}
			if flags.Changed("suffix") {
				cfg.Video.Suffix = suffix
			}
			if flags.Changed("order") {
				cfg.Video.Order = order
			}
			if flags.Changed("fps") {
				cfg.Video.FPS = fps
			}
			if flags.Changed("quality") {
				cfg.Video.Quality = quality
			}

			if cfg.Video.InputDir == "" {
				return errors.New("no image directory given")
			}
			if _, err := a.validated(); err != nil {
				return err
			}

			sortOrder, err := frames.ParseOrder(cfg.Video.Order)
			if err != nil {
				return err
			}
			set, err := frames.List(cfg.Video.InputDir, cfg.Video.Suffix, sortOrder)
			if err != nil {
				return err
			}

			asm := video.NewAssembler(&video.Params{
				Output:  cfg.VideoOutput(),
				Codec:   cfg.Video.Codec,
				FPS:     cfg.Video.FPS,
				Quality: cfg.Video.Quality,
			})
			bar := progress.New(cmd.ErrOrStderr(), progress.DefaultWidth)
			asm.SetProgressCallback(bar.Update)

			res, err := asm.Assemble(cmd.Context(), set)
			if err != nil {
				bar.Done("")
				return err
			}
			bar.Done("done!")

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames (%dx%d @ %d fps) to %s (%s)\n",
				res.Frames, res.Width, res.Height, cfg.Video.FPS, res.Output, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "movie", "Video base name, .avi is appended")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <image-dir>/<name>.avi)")
	cmd.Flags().StringVar(&suffix, "suffix", ".png", "Suffix of the image files to use")
	cmd.Flags().StringVar(&order, "order", "lexical", "Frame order: lexical or numeric")
	cmd.Flags().IntVar(&fps, "fps", 30, "Frames per second")
	cmd.Flags().IntVarP(&quality, "quality", "q", 90, "JPEG quality of each frame (1-100)")

	return cmd
}
