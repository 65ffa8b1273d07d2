package compute

import (
	"context"
	"fmt"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"

	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/profile"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/userdata"
	"github.com/imamik/ec2-cli/internal/util/naming"
	"github.com/imamik/ec2-cli/internal/util/retry"
)

// LaunchError wraps a failed launch. The provider message is preserved.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch instance %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// LaunchRequest is everything a single RunInstances call needs.
type LaunchRequest struct {
	Name               string
	ImageID            string
	RootDeviceName     string
	InstanceType       string
	SubnetID           string
	InstanceProfileARN string
	// UserData is base64 encoded.
	UserData    string
	RootVolume  profile.RootVolumeConfig
	Tags        map[string]string
	ClientToken string
}

// BuildLaunchRequest assembles a launch request. ImageID is set from an
// explicit AMI id and left empty for image families; RootDeviceName is
// left empty until the image is known.
func BuildLaunchRequest(
	p *profile.Profile,
	infra *provisioning.Infrastructure,
	name string,
	customTags map[string]string,
	allowTagOverride bool,
	bootstrap string,
) *LaunchRequest {
	return &LaunchRequest{
		Name:               name,
		ImageID:            p.Instance.AMI.ID,
		InstanceType:       p.Instance.Type,
		SubnetID:           infra.SubnetID,
		InstanceProfileARN: infra.InstanceProfileARN,
		UserData:           userdata.Encode(bootstrap),
		RootVolume:         p.Instance.Storage.RootVolume,
		Tags:               aws.MergeTags(name, customTags, allowTagOverride),
		ClientToken:        naming.ClientToken(name, uuid.NewString()),
	}
}

// Input renders the request as a RunInstances input.
func (r *LaunchRequest) Input() *ec2.RunInstancesInput {
	tags := aws.EC2Tags(r.Tags)

	ebs := &ec2types.EbsBlockDevice{
		VolumeSize:          awsv2.Int32(r.RootVolume.SizeGB),
		VolumeType:          ec2types.VolumeType(r.RootVolume.Type),
		DeleteOnTermination: awsv2.Bool(true),
		Encrypted:           awsv2.Bool(true),
	}
	if r.RootVolume.IOPS > 0 {
		ebs.Iops = awsv2.Int32(r.RootVolume.IOPS)
	}
	if r.RootVolume.Throughput > 0 {
		ebs.Throughput = awsv2.Int32(r.RootVolume.Throughput)
	}

	device := r.RootDeviceName
	if device == "" {
		device = defaultRootDevice
	}

	input := &ec2.RunInstancesInput{
		ImageId:      awsv2.String(r.ImageID),
		InstanceType: ec2types.InstanceType(r.InstanceType),
		MinCount:     awsv2.Int32(1),
		MaxCount:     awsv2.Int32(1),
		SubnetId:     awsv2.String(r.SubnetID),
		IamInstanceProfile: &ec2types.IamInstanceProfileSpecification{
			Arn: awsv2.String(r.InstanceProfileARN),
		},
		ClientToken: awsv2.String(r.ClientToken),
		BlockDeviceMappings: []ec2types.BlockDeviceMapping{
			{DeviceName: awsv2.String(device), Ebs: ebs},
		},
		MetadataOptions: &ec2types.InstanceMetadataOptionsRequest{
			HttpTokens:              ec2types.HttpTokensStateRequired,
			HttpEndpoint:            ec2types.InstanceMetadataEndpointStateEnabled,
			HttpPutResponseHopLimit: awsv2.Int32(2),
		},
		TagSpecifications: []ec2types.TagSpecification{
			{ResourceType: ec2types.ResourceTypeInstance, Tags: tags},
			{ResourceType: ec2types.ResourceTypeVolume, Tags: tags},
		},
	}
	if r.UserData != "" {
		input.UserData = awsv2.String(r.UserData)
	}
	return input
}

// Launcher starts instances.
type Launcher struct {
	instances aws.InstanceAPI
	params    aws.ParameterAPI
	observer  provisioning.Observer
	clock     retry.Clock

	retryAttempts     int
	retryInitialDelay time.Duration
}

// NewLauncher creates a launcher over the session's EC2 and SSM clients.
func NewLauncher(sess *aws.Session, observer provisioning.Observer, clock retry.Clock, attempts int, initialDelay time.Duration) *Launcher {
	return &Launcher{
		instances:         sess.EC2,
		params:            sess.SSM,
		observer:          observer,
		clock:             clock,
		retryAttempts:     attempts,
		retryInitialDelay: initialDelay,
	}
}

// Prepare fills the image id and root device of req.
func (l *Launcher) Prepare(ctx context.Context, req *LaunchRequest, ami profile.AMIConfig) error {
	if req.ImageID == "" {
		id, err := ResolveImage(ctx, l.params, ami)
		if err != nil {
			return &LaunchError{Name: req.Name, Err: err}
		}
		req.ImageID = id
	}
	device, err := RootDeviceName(ctx, l.instances, req.ImageID)
	if err != nil {
		return &LaunchError{Name: req.Name, Err: err}
	}
	req.RootDeviceName = device
	return nil
}

// Launch issues RunInstances once and returns the instance id. When
// retryProfile is set, an instance profile EC2 cannot see yet is retried
// with the same client token; anything else fails immediately.
func (l *Launcher) Launch(ctx context.Context, req *LaunchRequest, retryProfile bool) (string, error) {
	input := req.Input()

	retryable := func(err error) bool {
		return retryProfile && aws.IsProfileNotVisible(err)
	}

	var instanceID string
	run := func() error {
		out, err := l.instances.RunInstances(ctx, input)
		if err != nil {
			if retryable(err) {
				l.observer.Printf("Instance profile not yet visible to EC2, retrying...")
			}
			return err
		}
		if len(out.Instances) == 0 {
			return fmt.Errorf("RunInstances returned no instances")
		}
		instanceID = awsv2.ToString(out.Instances[0].InstanceId)
		return nil
	}

	err := retry.WithExponentialBackoff(ctx, run,
		retry.WithMaxRetries(l.retryAttempts),
		retry.WithInitialDelay(l.retryInitialDelay),
		retry.WithBackoffClock(l.clock),
		retry.WithRetryIf(retryable),
	)
	if err != nil {
		return "", &LaunchError{Name: req.Name, Err: err}
	}
	return instanceID, nil
}
