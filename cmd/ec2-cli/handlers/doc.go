// Package handlers implements the business logic for CLI commands.
//
// Each handler loads settings and state, establishes an AWS session when
// the command needs one, and drives the provisioning packages. External
// dependencies are reached through package-level factory variables so
// tests can substitute fakes.
package handlers
