// Command vicsek runs Vicsek flocking simulations in a peanut-shaped domain.
//
// Usage
//
//	vicsek run [config_file]
//	vicsek render <data_dir> [figure_dir]
//	vicsek config
//	vicsek version
//
// The run command takes one optional argument, the path to a config file.
// If no config file is specified, an interactive simulation
// with default parameters will run in an OpenGL window.
//
// Config file
//
// The config file is written in TOML, or in YAML when its name ends
// in .yaml or .yml. Keys are the names of the fields of Config (lower case
// in YAML) and missing keys keep their default value. Run
//
//	vicsek config
//
// to print the defaults.
//
// Outputs
//
// The dat output writes one comma-separated file per step under
// <Path>/<yyyymmdd>/<separation>/<noise*100>/, the hdf5 output writes a single
// file and the sqlite output appends the run to a database.
// The render command draws such a dat directory to PNG images.
//
// Interactive mode
//
// In interactive mode, the simulation can be paused/resumed with space.
// While in pause, pressing right arrow will perform a single step.
// R resets the viewport, the mouse wheel zooms.
// Pressing Esc or closing the window will quit.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vicsek",
		Short: "Vicsek flocking in a peanut-shaped domain",
		Long: `vicsek simulates self-propelled particles that align with their neighbors
inside two overlapping disks, reflecting off the walls.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides the config)")

	rootCmd.AddCommand(
		newRunCmd(),
		newRenderCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Fatal prints an error on the standard error and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vicsek version %s\n", version)
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [config_file]",
		Short: "Print the effective configuration as TOML",
		Long: `Print the configuration as TOML: the defaults, or the given
config file merged over the defaults.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := DefaultConf
			if len(args) == 1 {
				var err error
				if conf, err = ParseConfig(args[0]); err != nil {
					return err
				}
			}
			return conf.WriteTOML(cmd.OutOrStdout())
		},
	}
}
