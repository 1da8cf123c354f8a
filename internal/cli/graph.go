package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gilesp1729/loftycad/pkg/render/topograph"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output   string // output file; stdout when empty
	svg      bool   // render with Graphviz instead of writing DOT
	points   bool   // include points
	detailed bool   // show types and operators in labels
}

// graphCommand diagrams the object tree a script builds.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [script]",
		Short: "Draw the object tree of a script's model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.evaluate(args[0])
			if err != nil {
				return err
			}
			dot := topograph.ToDOT(res.Model, topograph.Options{Points: opts.points, Detailed: opts.detailed})
			data := []byte(dot)
			if opts.svg {
				if data, err = topograph.RenderSVG(cmd.Context(), dot); err != nil {
					return err
				}
			}
			if opts.output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			c.Logger.Debug("writing diagram", "file", opts.output, "bytes", len(data))
			return os.WriteFile(opts.output, data, 0o644)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.svg, "svg", false, "render SVG instead of DOT")
	cmd.Flags().BoolVar(&opts.points, "points", false, "include points")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with types and operators")
	return cmd
}
