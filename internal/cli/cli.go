// Package cli implements the hamgraph command-line interface.
//
// Commands:
//   - solve: generate an instance, search a Hamiltonian cycle (or the cheapest
//     tour with --optimize) and print it, optionally rendering SVG and dumping
//     Prometheus metrics;
//   - modes: list the arc-selection modes.
//
// Every setting can come from a TOML file (--config); explicit flags win.
package cli

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const appName = "hamgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = logrus.DebugLevel
	LogInfo  = logrus.InfoLevel
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *logrus.Logger
	out    io.Writer
}

// New creates a CLI printing results to out and logging to logw.
func New(out, logw io.Writer, level logrus.Level) *CLI {
	return &CLI{Logger: newLogger(logw, level), out: out}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level logrus.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "hamgraph searches Hamiltonian cycles with graph-variable branch-and-bound",
		Long:         `hamgraph explores Hamiltonian cycle and TSP instances with a graph domain, a subtour-merging propagator and configurable arc-selection heuristics.`,
		Version:      Version,
		SilenceUsage: true,
	}
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.modesCommand())
	return root
}

func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.00",
	})
	return l
}
