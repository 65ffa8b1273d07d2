package state

import "fmt"

// CorruptError reports a state document that exists but cannot be parsed.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("state file %s is corrupted: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// NotFoundError reports an instance name that cannot be resolved locally.
type NotFoundError struct {
	// Name is empty when neither a name nor a link was available.
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return "no instance name provided and no linked instance found"
	}
	return fmt.Sprintf("instance %q not found in state", e.Name)
}
