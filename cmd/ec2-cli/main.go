// Package main is the entry point for the ec2-cli CLI.
//
// ec2-cli launches short-lived EC2 development instances that are reached
// through AWS Systems Manager instead of SSH keys and open ports. It keeps
// a small local record of the instances it launched so they can be
// inspected and destroyed later.
//
// Commands: up, destroy, status, list, profile, config.
//
// For detailed usage information, run:
//
//	ec2-cli --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/ec2-cli/cmd/ec2-cli/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
