package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvaspilot/canvaspilot/canvas"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the Canvas tools the assistant can call",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, spec := range canvas.Catalogue() {
				fmt.Fprintf(out, "%s\n    %s\n", spec.Name, spec.Description)
				for _, p := range spec.Params {
					req := "optional"
					if p.Required {
						req = "required"
					}
					fmt.Fprintf(out, "    - %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
				}
			}
			return nil
		},
	}
}
