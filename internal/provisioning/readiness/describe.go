package readiness

import (
	"context"
	"errors"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/imamik/ec2-cli/internal/platform/aws"
)

// ErrInstanceNotFound is returned when a describe call omits the instance.
var ErrInstanceNotFound = errors.New("instance not found")

// IsInstanceGone reports whether err says the instance does not exist.
func IsInstanceGone(err error) bool {
	return errors.Is(err, ErrInstanceNotFound) || aws.IsNotFound(err)
}

// InstanceStateError reports an instance that will never become running.
type InstanceStateError struct {
	InstanceID string
	State      string
	Reason     string
}

func (e *InstanceStateError) Error() string {
	msg := fmt.Sprintf("instance %s entered state %s", e.InstanceID, e.State)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// DescribeInstance returns the current description of instanceID.
func DescribeInstance(ctx context.Context, api aws.InstanceAPI, instanceID string) (*ec2types.Instance, error) {
	out, err := api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		return nil, aws.NewAPIError("EC2", "DescribeInstances", err)
	}
	for _, r := range out.Reservations {
		for i := range r.Instances {
			if awsv2.ToString(r.Instances[i].InstanceId) == instanceID {
				return &r.Instances[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
}

// InstanceState returns the state name of inst, or "unknown".
func InstanceState(inst *ec2types.Instance) string {
	if inst == nil || inst.State == nil {
		return "unknown"
	}
	return string(inst.State.Name)
}

// AgentPingStatus returns the SSM ping status of instanceID. An agent that
// has not registered yet reports an empty status.
func AgentPingStatus(ctx context.Context, api aws.AgentAPI, instanceID string) (string, error) {
	out, err := api.DescribeInstanceInformation(ctx, &ssm.DescribeInstanceInformationInput{
		Filters: []ssmtypes.InstanceInformationStringFilter{
			{Key: awsv2.String("InstanceIds"), Values: []string{instanceID}},
		},
	})
	if err != nil {
		return "", aws.NewAPIError("SSM", "DescribeInstanceInformation", err)
	}
	for _, info := range out.InstanceInformationList {
		if awsv2.ToString(info.InstanceId) == instanceID {
			return string(info.PingStatus), nil
		}
	}
	return "", nil
}
