// Package cli implements the loftycad command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/engine"
	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// version is set at build time with -ldflags.
var version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	facing     string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "loftycad",
		Short:        "LoftyCAD builds boundary-represented solids from Lisp scripts",
		Long:         `LoftyCAD evaluates modelling scripts that draw edges, make faces and build solids by extrusion, revolution and lofting, then checks, meshes or diagrams the result.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML file of modelling tolerances")
	root.PersistentFlags().StringVar(&c.facing, "facing", "", "initial facing plane (xy, yz, xz, -xy, -yz, -xz)")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.previewCommand())

	return root
}

// config loads the configuration named on the command line.
func (c *CLI) config() (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return cfg, err
		}
	}
	if c.facing != "" {
		f, err := geom.ParseFacing(c.facing)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.WithFacing(f)
	}
	return cfg.WithLogger(c.Logger), nil
}

// evaluate reads and runs the script at path. Script errors are logged
// and returned as one error.
func (c *CLI) evaluate(path string) (engine.EvalResult, error) {
	cfg, err := c.config()
	if err != nil {
		return engine.EvalResult{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return engine.EvalResult{}, err
	}

	res, err := engine.NewEngine(cfg).Run(string(src))
	if err != nil {
		return res, err
	}
	for _, e := range res.Errors {
		c.Logger.Error(e.Message, "file", path, "line", e.Line)
	}
	if len(res.Errors) > 0 {
		return res, fmt.Errorf("%s: %d error(s)", path, len(res.Errors))
	}
	return res, nil
}

func logStats(l *log.Logger, m *topo.Model) {
	s := m.Stats()
	l.Info("model built", "roots", len(m.Roots), "volumes", s.Volumes, "faces", s.Faces, "edges", s.Edges, "points", s.Points)
}
