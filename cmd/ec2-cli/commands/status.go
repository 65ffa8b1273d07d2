package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/handlers"
)

// Status returns the status command.
func Status() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status [name]",
		Short: "Show an instance's recorded and live state",
		Long: `Status prints the local record of an instance together with its
current EC2 state and SSM agent status. Without a name the instance linked
to the current directory is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.Status(cmd.Context(), name, output)
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
