// Package readiness waits for a launched instance to become usable.
//
// Two conditions are awaited in order: the instance reaching the running
// state, then its SSM agent reporting Online. Each wait polls at a fixed
// interval until the condition holds or its timeout elapses, and returns a
// *retry.TimeoutError on expiry. A running wait fails fast when the
// instance enters a state it cannot leave toward running.
package readiness
