// Package state persists the mapping from instance names to launched
// instances.
//
// The state document is a single JSON file under the XDG state directory.
// It is the only durable link between a name and an instance id. Every
// read-modify-write holds an advisory lock on a sibling lock file, and
// saves replace the document atomically, so concurrent invocations never
// lose each other's updates.
//
// The package also manages the per-directory instance link that lets
// commands run without an explicit name.
package state
