package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/handlers"
)

// Up returns the up command.
func Up() *cobra.Command {
	var opts handlers.UpOptions

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Launch a development instance",
		Long: `Up launches an EC2 instance and waits until it can be reached.

The first launch in an account creates a shared IAM role and instance
profile that let the SSM agent register; later launches reuse them.
The instance gets no public SSH access. Connect with Session Manager:

  aws ssm start-session --target <instance-id>

The instance is launched into the configured subnet (see 'ec2-cli config
init') and bootstrapped from the selected profile. Once it is running it
is recorded locally, even if the agent never comes online.

Examples:
  ec2-cli up
  ec2-cli up --profile rust --name scratch --link`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "Profile to launch (default \"default\")")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Instance name (generated when omitted)")
	cmd.Flags().BoolVar(&opts.Link, "link", false, "Link the instance to the current directory")

	return cmd
}
