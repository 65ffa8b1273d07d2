// Package config holds the operator settings document and the timeout knobs
// used while provisioning.
//
// [Settings] is persisted as JSON under the per-user configuration directory
// with owner-only permissions, since its custom tags may identify the
// operator. It carries network placement overrides (region, VPC, subnet) and
// the custom tag map merged into every launched instance. [Timeouts] is read
// from the environment on every invocation and never persisted.
package config
