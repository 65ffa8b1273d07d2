package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var opts handlers.DestroyOptions

	cmd := &cobra.Command{
		Use:   "destroy [name]",
		Short: "Terminate an instance and forget it",
		Long: `Destroy terminates an instance, waits until EC2 reports it terminated,
and removes it from the local record. Without a name the instance linked
to the current directory is destroyed.

The shared IAM role and instance profile are kept for later launches.

WARNING: The instance's root volume is deleted with it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			return handlers.Destroy(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
