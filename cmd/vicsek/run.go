package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrincetonUniversity/vicsek"
	"github.com/PrincetonUniversity/vicsek/dat"
	"github.com/PrincetonUniversity/vicsek/hdf5"
	"github.com/PrincetonUniversity/vicsek/internal/logging"
	"github.com/PrincetonUniversity/vicsek/opengl"
	"github.com/PrincetonUniversity/vicsek/sqlite"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [config_file]",
		Short: "Run a simulation",
		Long: `Run a simulation with the parameters of the given config file,
or with default parameters in an interactive OpenGL window.

Examples:
  vicsek run                 # interactive, default parameters
  vicsek run sweep.toml      # parameters and output from a TOML file
  vicsek run sweep.yaml      # same in YAML`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := *DefaultConf
			if len(args) == 1 {
				c, err := ParseConfig(args[0])
				if err != nil {
					return err
				}
				conf = *c
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				conf.LogLevel = lvl
			}
			logger := logging.NewLogger(conf.LogLevel, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, &conf, logger)
		},
	}
}

// setup initializes the state and parameters of all particles.
func setup(conf *Config, logger *slog.Logger) (*vicsek.Simulation, error) {
	if conf.Seed == 0 {
		conf.Seed = uint64(time.Now().UnixNano())
	}
	c := conf.Sim()
	swarm, err := vicsek.NewSwarm(c)
	if err != nil {
		return nil, err
	}
	s, err := vicsek.NewSimulation(c, swarm)
	if err != nil {
		return nil, err
	}
	s.Logger = logger
	logger.Info("simulation ready",
		"swarm_size", c.SwarmSize,
		"steps", c.Steps,
		"noise", c.Noise,
		"separation", c.Domain.Separation,
		"seed", c.Seed,
		"density", float64(c.SwarmSize)/c.Domain.Area())
	return s, nil
}

// run runs a whole simulation, writing it to the configured output.
func run(ctx context.Context, conf *Config, logger *slog.Logger) (err error) {
	s, err := setup(conf, logger)
	if err != nil {
		return err
	}
	progress := logging.Progress(logger, conf.Steps, conf.ProgressEvery)

	start := time.Now()
	defer func() {
		if err == nil {
			logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))
		}
	}()

	switch conf.Output {
	case "":
		return RunOpenGL(conf, s, progress)

	case OutputDat:
		dir := dat.Dir(conf.Path, start, s.Config())
		logger.Info("writing dat files", "dir", dir)
		return s.Run(ctx, vicsek.MultiSink(progress, &dat.Sink{Dir: dir}))

	case OutputHDF5:
		var sink *hdf5.Sink
		if sink, err = hdf5.Create(conf.Path, s.Config()); err != nil {
			return err
		}
		defer checkClose(&err, sink)
		logger.Info("writing hdf5 file", "path", conf.Path)
		return s.Run(ctx, vicsek.MultiSink(progress, sink))

	case OutputSQLite:
		var db *sql.DB
		if db, err = sqlite.Open(ctx, conf.Path); err != nil {
			return err
		}
		defer checkClose(&err, db)
		var sink *sqlite.Sink
		if sink, err = sqlite.NewSink(ctx, db, s.Config()); err != nil {
			return err
		}
		logger.Info("writing sqlite run", "path", conf.Path, "run", sink.Run())
		return s.Run(ctx, vicsek.MultiSink(progress, sink))
	}
	return fmt.Errorf("bad output %q", conf.Output)
}

// RunOpenGL runs an interactive simulation in an OpenGL window.
func RunOpenGL(conf *Config, s *vicsek.Simulation, sink vicsek.Sink) error {
	L := conf.View
	if L == 0 {
		_, max := s.Config().Domain.Bounds()
		L = 1.1 * max.X
	}
	return opengl.Run(s, &opengl.Config{
		Size: 0.5 * conf.SearchRadius,
		Sink: sink,
		Xmin: -L,
		Ymin: -L,
		Xmax: L,
		Ymax: L,
	})
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
