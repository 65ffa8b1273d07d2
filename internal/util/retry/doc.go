// Package retry provides the two bounded waiting primitives used while
// provisioning an instance.
//
// [WithExponentialBackoff] retries an operation that fails transiently, such
// as launching with an instance profile IAM has not propagated yet. [Poll]
// repeatedly evaluates a readiness condition at a fixed interval until it
// holds or a deadline passes, returning a [TimeoutError] on expiry.
package retry
