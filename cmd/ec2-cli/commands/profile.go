package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/handlers"
)

// Profile returns the profile command group.
func Profile() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect launch profiles",
		Long: `Profiles describe the instance type, image, storage and packages of a
launch. They are YAML files looked up in ./.ec2-cli/profiles first and the
user configuration directory second. A built-in "default" profile is
always available.`,
	}

	cmd.AddCommand(profileList())
	cmd.AddCommand(profileShow())
	cmd.AddCommand(profileValidate())
	return cmd
}

func profileList() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available profiles",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.ProfileList(output)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func profileShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a profile with defaults applied",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.ProfileShow(name)
		},
	}
}

func profileValidate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <name|file>",
		Short: "Check a profile for errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.ProfileValidate(args[0])
		},
	}
}
