package aws

import (
	"errors"
	"fmt"
	"testing"

	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func apiErr(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"iam typed", &iamtypes.NoSuchEntityException{Message: stringPtr("no role")}, true},
		{"iam code", apiErr("NoSuchEntity", "role not found"), true},
		{"subnet", apiErr("InvalidSubnetID.NotFound", "subnet-1 missing"), true},
		{"instance wrapped", fmt.Errorf("describe: %w", apiErr("InvalidInstanceID.NotFound", "")), true},
		{"access denied", apiErr("AccessDenied", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsAlreadyExists(t *testing.T) {
	t.Parallel()
	assert.False(t, IsAlreadyExists(nil))
	assert.True(t, IsAlreadyExists(apiErr("EntityAlreadyExists", "role exists")))
	assert.True(t, IsAlreadyExists(&iamtypes.EntityAlreadyExistsException{Message: stringPtr("exists")}))
	assert.False(t, IsAlreadyExists(apiErr("LimitExceeded", "")))
}

func TestIsProfileNotVisible(t *testing.T) {
	t.Parallel()
	assert.True(t, IsProfileNotVisible(apiErr("InvalidParameterValue",
		"Value (arn:aws:iam::123:instance-profile/ec2-cli-instance-profile) for parameter iamInstanceProfile.arn is invalid. Invalid IAM Instance Profile ARN")))
	assert.False(t, IsProfileNotVisible(apiErr("InvalidParameterValue", "Invalid value 't9.huge' for InstanceType")))
	assert.False(t, IsProfileNotVisible(apiErr("UnauthorizedOperation", "iam instance profile")))
	assert.False(t, IsProfileNotVisible(errors.New("Invalid IAM Instance Profile")))
}

func TestAPIError_PreservesMessage(t *testing.T) {
	t.Parallel()
	base := apiErr("UnauthorizedOperation", "You are not authorized to perform this operation.")
	err := NewAPIError("EC2", "RunInstances", base)

	assert.Contains(t, err.Error(), "EC2")
	assert.Contains(t, err.Error(), "RunInstances")
	assert.Contains(t, err.Error(), "You are not authorized to perform this operation.")
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "UnauthorizedOperation", ErrorCode(err))
	assert.NoError(t, NewAPIError("EC2", "RunInstances", nil))
}

func TestAuthError(t *testing.T) {
	t.Parallel()
	cause := errors.New("expired token")
	err := &AuthError{Region: "us-west-2", Reason: "credential verification failed", Err: cause}

	assert.Contains(t, err.Error(), "us-west-2")
	assert.Contains(t, err.Error(), "expired token")
	assert.ErrorIs(t, err, cause)
}

func stringPtr(s string) *string { return &s }
