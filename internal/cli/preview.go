package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/gilesp1729/loftycad/pkg/preview"
)

// previewCommand prints the viewer payload for a script. Script errors
// are part of the payload, so the command only fails on I/O.
func (c *CLI) previewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [script]",
		Short: "Print coloured meshes and messages for a viewer as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result := preview.New(cfg).Evaluate(string(src))
			c.Logger.Debug("preview", "meshes", len(result.Meshes), "errors", len(result.Errors), "warnings", len(result.Warnings))
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		},
	}
	return cmd
}
