// Package provisioning provides shared types and interfaces for instance provisioning.
//
// The provisioning domain is organized into focused subpackages:
//   - infrastructure/: VPC and subnet placement, IAM permission binding
//   - compute/: launch request construction and RunInstances
//   - readiness/: bounded waits for instance state and SSM agent registration
//   - destroy/: termination and state cleanup
//
// This root package contains the phase pipeline, the shared Context and the
// observability and metrics types used across subpackages.
package provisioning
