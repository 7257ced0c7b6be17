// Package logging provides leveled logging for the vicsek commands.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/PrincetonUniversity/vicsek"
)

// LevelTrace is a custom slog level below Debug for per-step output.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Progress returns a sink that logs the progress of a run of the given
// number of steps every `every` steps, with the polarization of the swarm.
// Every step is logged at trace level.
func Progress(logger *slog.Logger, steps, every int) vicsek.Sink {
	if every <= 0 {
		every = max(steps/100, 1)
	}
	return vicsek.SinkFunc(func(step int, swarm []vicsek.Particle) error {
		switch {
		case step%every == 0:
			logger.Info("progress",
				"step", step,
				"percent", 100*step/max(steps, 1),
				"polarization", vicsek.Polarization(swarm))
		default:
			logger.Log(context.Background(), LevelTrace, "step", "step", step, "polarization", vicsek.Polarization(swarm))
		}
		return nil
	})
}
