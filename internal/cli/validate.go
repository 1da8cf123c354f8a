package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCommand evaluates a script and reports every finding about the
// model it builds. Findings fail the command only with --strict.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [script]",
		Short: "Check the model a script builds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.evaluate(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "%s: %s\n", w.Ref, w.Message)
			}
			if len(res.Warnings) == 0 {
				fmt.Fprintln(out, "ok")
				return nil
			}
			if strict {
				return fmt.Errorf("%s: %d finding(s)", args[0], len(res.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when there are findings")
	return cmd
}
