// Package destroy terminates a recorded instance and forgets it.
//
// Teardown terminates the instance, waits for it to reach the terminated
// state, then removes its state entry and any directory link pointing at
// it. The permission binding is shared by all instances and is never
// deleted.
package destroy
