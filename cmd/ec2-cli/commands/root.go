// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/handlers"
)

// Root returns the root command for the ec2-cli CLI.
//
// The root command carries the flags every subcommand shares and hands
// them to the handlers package before any subcommand runs.
func Root() *cobra.Command {
	var opts handlers.GlobalOptions

	cmd := &cobra.Command{
		Use:           "ec2-cli",
		Short:         "Ephemeral EC2 development instances over Session Manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch opts.LogFormat {
			case handlers.LogFormatText, handlers.LogFormatJSON:
			default:
				return fmt.Errorf("unsupported log format %q (use text or json)", opts.LogFormat)
			}
			handlers.Configure(opts)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Region, "region", "", "AWS region (overrides the configured region)")
	flags.StringVar(&opts.AWSProfile, "aws-profile", "", "Named profile from the shared AWS config files")
	flags.StringVar(&opts.LogFormat, "log-format", handlers.LogFormatText, "Progress log format: text or json")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "Write provisioning metrics to this file in Prometheus text format")

	// Instance lifecycle
	cmd.AddCommand(Up())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Status())
	cmd.AddCommand(List())

	// Setup
	cmd.AddCommand(Profile())
	cmd.AddCommand(Config())

	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// addOutputFlag binds the -o flag shared by the read-only commands.
func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", handlers.OutputTable, "Output format: table, json or yaml")
}
