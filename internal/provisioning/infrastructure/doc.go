// Package infrastructure resolves where an instance is placed and ensures the
// IAM permission binding it needs exists.
//
// Placement is the configured VPC (or the account's default VPC) plus the
// configured subnet, which must belong to that VPC. The permission binding is
// a role and an instance profile with fixed names, created on first use and
// reused afterwards.
package infrastructure
