package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/handlers"
)

// Config returns the config command group.
func Config() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ec2-cli settings",
	}

	cmd.AddCommand(configInit())
	cmd.AddCommand(configShow())
	cmd.AddCommand(configTags())
	return cmd
}

func configInit() *cobra.Command {
	var opts handlers.ConfigInitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Check prerequisites and choose where instances launch",
		Long: `Init checks that the AWS CLI, the Session Manager plugin and git are
installed, verifies your AWS credentials, and records your Username tag
and the VPC and subnet to launch into.

On a terminal, values not given as flags are prompted for. Otherwise
--username and --subnet are required unless already configured.

Examples:
  ec2-cli config init
  ec2-cli config init --username alice --subnet subnet-0abc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ConfigInit(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.VpcID, "vpc", "", "VPC to launch into (default VPC when omitted)")
	cmd.Flags().StringVar(&opts.SubnetID, "subnet", "", "Subnet to launch into")
	cmd.Flags().StringVar(&opts.Username, "username", "", "Value of the Username tag on your instances")

	return cmd
}

func configShow() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.ConfigShow(output)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func configTags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage custom tags applied to every instance",
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List custom tags",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.ConfigTagList(output)
		},
	}
	addOutputFlag(list, &output)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a custom tag",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return handlers.ConfigTagSet(args[0], args[1])
			},
		},
		list,
		&cobra.Command{
			Use:     "remove <key>",
			Aliases: []string{"rm"},
			Short:   "Remove a custom tag",
			Args:    cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return handlers.ConfigTagRemove(args[0])
			},
		},
	)
	return cmd
}
