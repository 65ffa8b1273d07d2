package infrastructure

import (
	"errors"
	"fmt"
)

// ErrorKind classifies resolution failures.
type ErrorKind string

const (
	// KindNoDefaultNetwork means no VPC is configured and the account has no default VPC.
	KindNoDefaultNetwork ErrorKind = "no-default-network"
	// KindNotConfigured means a required setting is missing.
	KindNotConfigured ErrorKind = "not-configured"
	// KindSubnetNotFound means the configured subnet does not exist.
	KindSubnetNotFound ErrorKind = "subnet-not-found"
	// KindSubnetMismatch means the subnet belongs to a different VPC.
	KindSubnetMismatch ErrorKind = "subnet-mismatch"
	// KindBindingNotReady means a new instance profile never showed its role.
	KindBindingNotReady ErrorKind = "binding-not-ready"
)

// ResolutionError is returned when placement or the permission binding
// cannot be resolved.
type ResolutionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ResolutionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Kind == kind
}
