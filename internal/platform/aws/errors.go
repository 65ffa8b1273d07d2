package aws

import (
	"errors"
	"fmt"
	"strings"

	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
)

// AuthError reports missing or invalid AWS credentials.
type AuthError struct {
	Region string
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "AWS credentials not found or invalid: " + e.Reason
	if e.Region != "" {
		msg += fmt.Sprintf(" (region %s)", e.Region)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a provider call failure. The underlying message is preserved.
type APIError struct {
	Service   string
	Operation string
	Err       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AWS %s error: %s: %v", e.Service, e.Operation, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError wraps err with the service and operation that produced it.
func NewAPIError(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Service: service, Operation: operation, Err: err}
}

// ErrorCode returns the smithy API error code carried by err, or "".
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsNotFound reports whether err says the addressed resource does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var noSuchEntity *iamtypes.NoSuchEntityException
	if errors.As(err, &noSuchEntity) {
		return true
	}
	switch ErrorCode(err) {
	case "NoSuchEntity",
		"InvalidVpcID.NotFound",
		"InvalidSubnetID.NotFound",
		"InvalidInstanceID.NotFound",
		"InvalidAMIID.NotFound",
		"ParameterNotFound":
		return true
	}
	return false
}

// IsAlreadyExists reports whether a create call hit an existing entity.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var exists *iamtypes.EntityAlreadyExistsException
	if errors.As(err, &exists) {
		return true
	}
	return ErrorCode(err) == "EntityAlreadyExists"
}

// IsProfileNotVisible reports whether RunInstances rejected an instance
// profile that IAM has created but EC2 cannot see yet.
func IsProfileNotVisible(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.ErrorCode() != "InvalidParameterValue" {
		return false
	}
	msg := strings.ToLower(apiErr.ErrorMessage())
	return strings.Contains(msg, "iam instance profile") || strings.Contains(msg, "iaminstanceprofile")
}
