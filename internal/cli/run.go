package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gilesp1729/loftycad/pkg/mesh"
	"github.com/gilesp1729/loftycad/pkg/tessellate"
)

const (
	formatSTL  = "stl"
	formatJSON = "json"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	output string // mesh output path; "-" writes to stdout
	format string // stl or json; defaults from the output extension
}

// runCommand evaluates a script and optionally writes its meshes.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Evaluate a modelling script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.evaluate(args[0])
			if err != nil {
				return err
			}
			logStats(c.Logger, res.Model)
			for _, w := range res.Warnings {
				c.Logger.Warn(w.Message, "object", w.Ref)
			}
			if opts.output == "" {
				return nil
			}

			meshes, err := tessellate.Tessellate(res.Model)
			if err != nil {
				return err
			}
			format := opts.format
			if format == "" {
				format = formatFromPath(opts.output)
			}
			if opts.output == "-" {
				return writeMeshes(cmd.OutOrStdout(), meshes, format)
			}
			f, err := os.Create(opts.output)
			if err != nil {
				return err
			}
			if err := writeMeshes(f, meshes, format); err != nil {
				f.Close()
				return err
			}
			c.Logger.Info("wrote meshes", "file", opts.output, "meshes", len(meshes))
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write meshes to this file (- for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "mesh format: stl or json")
	return cmd
}

func formatFromPath(path string) string {
	if filepath.Ext(path) == ".json" {
		return formatJSON
	}
	return formatSTL
}

func writeMeshes(w io.Writer, meshes []*mesh.Mesh, format string) error {
	switch format {
	case formatSTL:
		return mesh.WriteSTL(w, meshes)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meshes)
	}
	return fmt.Errorf("unknown mesh format %q (want %s or %s)", format, formatSTL, formatJSON)
}
