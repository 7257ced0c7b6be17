package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PrincetonUniversity/vicsek"
	"github.com/PrincetonUniversity/vicsek/dat"
	"github.com/PrincetonUniversity/vicsek/hdf5"
	"github.com/PrincetonUniversity/vicsek/render"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <data> [figure_dir]",
		Short: "Render the steps of a dat or hdf5 output to PNG images",
		Long: `Render every step of a dat output directory or of an HDF5 file
(.h5 or .hdf5) to a quiver plot, plus a plot of the polarization over time
(order.png). Images are written next to the data unless a figure directory
is given.

Examples:
  vicsek render data/20240309/012/020 figure/20240309/012/020
  vicsek render run.h5 figure/run`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			src, dst := args[0], args[0]
			if isHDF5(src) {
				dst = filepath.Dir(src)
			}
			if len(args) == 2 {
				dst = args[1]
			}
			o := render.DefaultOptions
			o.Size, _ = cmd.Flags().GetInt("size")
			o.Half, _ = cmd.Flags().GetFloat64("half")
			radius, _ := cmd.Flags().GetFloat64("radius")
			separation, _ := cmd.Flags().GetFloat64("separation")
			o.Domain = vicsek.Domain{Radius: radius, Separation: separation}
			if o.Size <= 0 || o.Half <= 0 {
				return fmt.Errorf("bad view: size %d, half width %g", o.Size, o.Half)
			}

			var steps render.Source
			if isHDF5(src) {
				var l *hdf5.Loader
				if l, err = hdf5.NewLoader(src, hdf5.Dataset); err != nil {
					return err
				}
				defer checkClose(&err, l)
				steps = l
			} else {
				if steps, err = dat.NewReader(src); err != nil {
					return err
				}
			}

			series, err := render.Frames(steps, dst, o)
			if err != nil {
				return err
			}
			if len(series) == 0 {
				return fmt.Errorf("%s holds no steps", src)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d steps to %s, final polarization %.3f\n",
				len(series), dst, series[len(series)-1])
			return nil
		},
	}

	cmd.Flags().Int("size", render.DefaultOptions.Size, "Image side in pixels")
	cmd.Flags().Float64("half", render.DefaultOptions.Half, "Half width L of the view [-L, L]")
	cmd.Flags().Float64("radius", 0, "Radius of the domain outline (0 for none)")
	cmd.Flags().Float64("separation", 0, "Lobe separation of the domain outline")

	return cmd
}

// isHDF5 reports whether path names an HDF5 file.
func isHDF5(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h5", ".hdf5":
		return true
	}
	return false
}
