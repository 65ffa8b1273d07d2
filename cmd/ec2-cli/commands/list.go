package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/handlers"
)

// List returns the list command.
func List() *cobra.Command {
	var (
		all    bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List launched instances",
		Long: `List prints the instances in the local record. It does not contact AWS
unless --all is given, in which case instances carrying the ec2-cli
managed tag in the current region are listed too, even if this machine
did not launch them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.List(cmd.Context(), all, output)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also list untracked managed instances in the region")
	addOutputFlag(cmd, &output)
	return cmd
}
