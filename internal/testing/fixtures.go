package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/ec2-cli/internal/platform/aws"
)

// Identifiers of the fixture's pre-seeded network.
const (
	DefaultRegion    = "us-west-2"
	DefaultAccountID = "123456789012"
	DefaultVpcID     = "vpc-0default"
	DefaultSubnetID  = "subnet-0default"
	OtherVpcID       = "vpc-0other"
	OtherSubnetID    = "subnet-0other"
)

// AccountFixture is an in-memory AWS account wired behind the platform/aws
// mocks. Tests mutate its exported fields to set up a scenario and then
// inspect them (or the mocks' call counts) afterwards.
type AccountFixture struct {
	mu sync.Mutex

	Region    string
	AccountID string

	EC2 *aws.MockEC2Client
	IAM *aws.MockIAMClient
	SSM *aws.MockSSMClient

	// DefaultVpc is the account's default VPC; empty means none.
	DefaultVpc string
	Vpcs       map[string]bool
	// Subnets maps subnet id to VPC id.
	Subnets map[string]string

	Roles        map[string]bool
	RolePolicies map[string]string // "role/policy" -> document
	// Profiles maps instance profile name to attached role names.
	Profiles map[string][]string
	// ProfileRoleLag is how many GetInstanceProfile calls after creation
	// still report no attached role.
	ProfileRoleLag int
	lagRemaining   int
	// ProfileNotVisibleLaunches is how many RunInstances calls fail with
	// EC2's "invalid IAM instance profile" error before succeeding.
	ProfileNotVisibleLaunches int

	// Parameters holds SSM parameter values.
	Parameters map[string]string
	// RootDevices maps image id to root device name; unknown images use /dev/xvda.
	RootDevices map[string]string

	Instances map[string]*FakeInstance
	// LaunchStates is the state sequence given to newly launched instances.
	LaunchStates []ec2types.InstanceStateName
	// LaunchPings is the agent ping sequence given to newly launched instances.
	LaunchPings []ssmtypes.PingStatus
	RunInputs   []*ec2.RunInstancesInput
	tokens      map[string]string
	nextID      int
}

// FakeInstance is a simulated instance. Each describe call consumes one
// entry of States (and Pings) and then stays on the last one.
type FakeInstance struct {
	ID     string
	Tags   []ec2types.Tag
	States []ec2types.InstanceStateName
	// Pings is the agent ping status sequence; an empty string means the
	// agent has not registered yet.
	Pings      []ssmtypes.PingStatus
	LaunchTime time.Time
}

// NewAccountFixture returns a fresh account: a default VPC with one subnet,
// a second VPC with another subnet, no IAM resources and no instances.
func NewAccountFixture() *AccountFixture {
	f := &AccountFixture{
		Region:     DefaultRegion,
		AccountID:  DefaultAccountID,
		EC2:        &aws.MockEC2Client{},
		IAM:        &aws.MockIAMClient{},
		SSM:        &aws.MockSSMClient{},
		DefaultVpc: DefaultVpcID,
		Vpcs:       map[string]bool{DefaultVpcID: true, OtherVpcID: true},
		Subnets: map[string]string{
			DefaultSubnetID: DefaultVpcID,
			OtherSubnetID:   OtherVpcID,
		},
		Roles:        map[string]bool{},
		RolePolicies: map[string]string{},
		Profiles:     map[string][]string{},
		Parameters: map[string]string{
			"/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-default-x86_64":           "ami-0al2023x86",
			"/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-default-arm64":            "ami-0al2023arm",
			"/aws/service/canonical/ubuntu/server/24.04/stable/current/amd64/hvm/ebs-gp3/ami-id": "ami-0ubuntux86",
			"/aws/service/canonical/ubuntu/server/24.04/stable/current/arm64/hvm/ebs-gp3/ami-id": "ami-0ubuntuarm",
		},
		RootDevices:  map[string]string{"ami-0ubuntux86": "/dev/sda1", "ami-0ubuntuarm": "/dev/sda1"},
		Instances:    map[string]*FakeInstance{},
		LaunchStates: []ec2types.InstanceStateName{ec2types.InstanceStateNamePending, ec2types.InstanceStateNameRunning},
		LaunchPings:  []ssmtypes.PingStatus{"", ssmtypes.PingStatusOnline},
		tokens:       map[string]string{},
	}
	f.wire()
	return f
}

// WithExistingBinding pre-creates the role, its policy and the instance
// profile with the role attached.
func (f *AccountFixture) WithExistingBinding(roleName, profileName, policyName string) *AccountFixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Roles[roleName] = true
	f.RolePolicies[roleName+"/"+policyName] = "{}"
	f.Profiles[profileName] = []string{roleName}
	return f
}

// Session returns a session whose service handles are the fixture's mocks.
func (f *AccountFixture) Session() *aws.Session {
	return &aws.Session{
		Region:    f.Region,
		AccountID: f.AccountID,
		CallerARN: fmt.Sprintf("arn:aws:iam::%s:user/tester", f.AccountID),
		EC2:       f.EC2,
		IAM:       f.IAM,
		SSM:       f.SSM,
	}
}

// AddInstance registers a simulated instance directly.
func (f *AccountFixture) AddInstance(inst *FakeInstance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst.LaunchTime.IsZero() {
		inst.LaunchTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	f.Instances[inst.ID] = inst
}

// Instance returns a simulated instance by id.
func (f *AccountFixture) Instance(id string) *FakeInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Instances[id]
}

// ProfileARN returns the ARN the fixture assigns to an instance profile.
func (f *AccountFixture) ProfileARN(name string) string {
	return fmt.Sprintf("arn:aws:iam::%s:instance-profile/%s", f.AccountID, name)
}

// RoleARN returns the ARN the fixture assigns to a role.
func (f *AccountFixture) RoleARN(name string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", f.AccountID, name)
}

func apiError(code, format string, args ...any) error {
	return &smithy.GenericAPIError{Code: code, Message: fmt.Sprintf(format, args...), Fault: smithy.FaultClient}
}

func (f *AccountFixture) wire() {
	f.wireNetwork()
	f.wireIAM()
	f.wireInstances()
	f.wireSSM()
}

func (f *AccountFixture) wireNetwork() {
	f.EC2.DescribeVpcsFunc = func(_ context.Context, in *ec2.DescribeVpcsInput) (*ec2.DescribeVpcsOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := &ec2.DescribeVpcsOutput{}
		for _, id := range in.VpcIds {
			if !f.Vpcs[id] {
				return nil, apiError("InvalidVpcID.NotFound", "The vpc ID '%s' does not exist", id)
			}
			out.Vpcs = append(out.Vpcs, ec2types.Vpc{VpcId: awsv2.String(id), IsDefault: awsv2.Bool(id == f.DefaultVpc)})
		}
		defaultOnly := false
		for _, filter := range in.Filters {
			if awsv2.ToString(filter.Name) == "is-default" {
				defaultOnly = true
				if f.DefaultVpc != "" {
					out.Vpcs = append(out.Vpcs, ec2types.Vpc{VpcId: awsv2.String(f.DefaultVpc), IsDefault: awsv2.Bool(true)})
				}
			}
		}
		if len(in.VpcIds) == 0 && !defaultOnly {
			ids := make([]string, 0, len(f.Vpcs))
			for id := range f.Vpcs {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				out.Vpcs = append(out.Vpcs, ec2types.Vpc{VpcId: awsv2.String(id), IsDefault: awsv2.Bool(id == f.DefaultVpc)})
			}
		}
		return out, nil
	}

	f.EC2.DescribeSubnetsFunc = func(_ context.Context, in *ec2.DescribeSubnetsInput) (*ec2.DescribeSubnetsOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := &ec2.DescribeSubnetsOutput{}
		for _, id := range in.SubnetIds {
			vpc, ok := f.Subnets[id]
			if !ok {
				return nil, apiError("InvalidSubnetID.NotFound", "The subnet ID '%s' does not exist", id)
			}
			out.Subnets = append(out.Subnets, ec2types.Subnet{
				SubnetId:         awsv2.String(id),
				VpcId:            awsv2.String(vpc),
				AvailabilityZone: awsv2.String(f.Region + "a"),
			})
		}
		if len(in.SubnetIds) == 0 {
			vpcFilter := ""
			for _, filter := range in.Filters {
				if awsv2.ToString(filter.Name) == "vpc-id" && len(filter.Values) > 0 {
					vpcFilter = filter.Values[0]
				}
			}
			for id, vpc := range f.Subnets {
				if vpcFilter != "" && vpc != vpcFilter {
					continue
				}
				out.Subnets = append(out.Subnets, ec2types.Subnet{
					SubnetId:         awsv2.String(id),
					VpcId:            awsv2.String(vpc),
					AvailabilityZone: awsv2.String(f.Region + "a"),
				})
			}
		}
		return out, nil
	}
}

func (f *AccountFixture) wireIAM() {
	f.IAM.GetRoleFunc = func(_ context.Context, in *iam.GetRoleInput) (*iam.GetRoleOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := awsv2.ToString(in.RoleName)
		if !f.Roles[name] {
			return nil, &iamtypes.NoSuchEntityException{Message: awsv2.String(fmt.Sprintf("The role with name %s cannot be found.", name))}
		}
		return &iam.GetRoleOutput{Role: f.role(name)}, nil
	}

	f.IAM.CreateRoleFunc = func(_ context.Context, in *iam.CreateRoleInput) (*iam.CreateRoleOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := awsv2.ToString(in.RoleName)
		if f.Roles[name] {
			return nil, &iamtypes.EntityAlreadyExistsException{Message: awsv2.String(fmt.Sprintf("Role with name %s already exists.", name))}
		}
		f.Roles[name] = true
		return &iam.CreateRoleOutput{Role: f.role(name)}, nil
	}

	f.IAM.PutRolePolicyFunc = func(_ context.Context, in *iam.PutRolePolicyInput) (*iam.PutRolePolicyOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		role := awsv2.ToString(in.RoleName)
		if !f.Roles[role] {
			return nil, &iamtypes.NoSuchEntityException{Message: awsv2.String("role not found")}
		}
		f.RolePolicies[role+"/"+awsv2.ToString(in.PolicyName)] = awsv2.ToString(in.PolicyDocument)
		return &iam.PutRolePolicyOutput{}, nil
	}

	f.IAM.GetInstanceProfileFunc = func(_ context.Context, in *iam.GetInstanceProfileInput) (*iam.GetInstanceProfileOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := awsv2.ToString(in.InstanceProfileName)
		roles, ok := f.Profiles[name]
		if !ok {
			return nil, &iamtypes.NoSuchEntityException{Message: awsv2.String(fmt.Sprintf("Instance Profile %s cannot be found.", name))}
		}
		if f.lagRemaining > 0 {
			f.lagRemaining--
			roles = nil
		}
		return &iam.GetInstanceProfileOutput{InstanceProfile: f.instanceProfile(name, roles)}, nil
	}

	f.IAM.CreateInstanceProfileFunc = func(_ context.Context, in *iam.CreateInstanceProfileInput) (*iam.CreateInstanceProfileOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := awsv2.ToString(in.InstanceProfileName)
		if _, ok := f.Profiles[name]; ok {
			return nil, &iamtypes.EntityAlreadyExistsException{Message: awsv2.String(fmt.Sprintf("Instance Profile %s already exists.", name))}
		}
		f.Profiles[name] = nil
		f.lagRemaining = f.ProfileRoleLag
		return &iam.CreateInstanceProfileOutput{InstanceProfile: f.instanceProfile(name, nil)}, nil
	}

	f.IAM.AddRoleToInstanceProfileFunc = func(_ context.Context, in *iam.AddRoleToInstanceProfileInput) (*iam.AddRoleToInstanceProfileOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := awsv2.ToString(in.InstanceProfileName)
		roles, ok := f.Profiles[name]
		if !ok {
			return nil, &iamtypes.NoSuchEntityException{Message: awsv2.String("instance profile not found")}
		}
		if len(roles) > 0 {
			return nil, &iamtypes.LimitExceededException{Message: awsv2.String("Cannot exceed quota for InstanceSessionsPerInstanceProfile: 1")}
		}
		f.Profiles[name] = []string{awsv2.ToString(in.RoleName)}
		return &iam.AddRoleToInstanceProfileOutput{}, nil
	}
}

func (f *AccountFixture) role(name string) *iamtypes.Role {
	return &iamtypes.Role{
		RoleName: awsv2.String(name),
		Arn:      awsv2.String(f.RoleARN(name)),
		Path:     awsv2.String("/"),
	}
}

func (f *AccountFixture) instanceProfile(name string, roles []string) *iamtypes.InstanceProfile {
	p := &iamtypes.InstanceProfile{
		InstanceProfileName: awsv2.String(name),
		Arn:                 awsv2.String(f.ProfileARN(name)),
		Path:                awsv2.String("/"),
	}
	for _, r := range roles {
		p.Roles = append(p.Roles, *f.role(r))
	}
	return p
}

func (f *AccountFixture) wireInstances() {
	f.EC2.RunInstancesFunc = func(_ context.Context, in *ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.RunInputs = append(f.RunInputs, in)

		if f.ProfileNotVisibleLaunches > 0 {
			f.ProfileNotVisibleLaunches--
			return nil, apiError("InvalidParameterValue", "Value (%s) for parameter iamInstanceProfile.arn is invalid. Invalid IAM Instance Profile ARN",
				awsv2.ToString(in.IamInstanceProfile.Arn))
		}
		if _, ok := f.Subnets[awsv2.ToString(in.SubnetId)]; !ok {
			return nil, apiError("InvalidSubnetID.NotFound", "The subnet ID '%s' does not exist", awsv2.ToString(in.SubnetId))
		}

		token := awsv2.ToString(in.ClientToken)
		if id, ok := f.tokens[token]; ok && token != "" {
			return &ec2.RunInstancesOutput{Instances: []ec2types.Instance{f.describe(f.Instances[id], false)}}, nil
		}

		f.nextID++
		inst := &FakeInstance{
			ID:         fmt.Sprintf("i-%017d", f.nextID),
			States:     append([]ec2types.InstanceStateName(nil), f.LaunchStates...),
			Pings:      append([]ssmtypes.PingStatus(nil), f.LaunchPings...),
			LaunchTime: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		}
		for _, spec := range in.TagSpecifications {
			if spec.ResourceType == ec2types.ResourceTypeInstance {
				inst.Tags = append(inst.Tags, spec.Tags...)
			}
		}
		f.Instances[inst.ID] = inst
		if token != "" {
			f.tokens[token] = inst.ID
		}
		return &ec2.RunInstancesOutput{Instances: []ec2types.Instance{f.describe(inst, false)}}, nil
	}

	f.EC2.DescribeInstancesFunc = func(_ context.Context, in *ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var instances []ec2types.Instance
		if len(in.InstanceIds) > 0 {
			for _, id := range in.InstanceIds {
				inst, ok := f.Instances[id]
				if !ok {
					return nil, apiError("InvalidInstanceID.NotFound", "The instance ID '%s' does not exist", id)
				}
				instances = append(instances, f.describe(inst, true))
			}
		} else {
			for _, inst := range f.Instances {
				if matchesTagFilters(inst.Tags, in.Filters) {
					instances = append(instances, f.describe(inst, true))
				}
			}
		}
		out := &ec2.DescribeInstancesOutput{}
		if len(instances) > 0 {
			out.Reservations = []ec2types.Reservation{{Instances: instances}}
		}
		return out, nil
	}

	f.EC2.TerminateInstancesFunc = func(_ context.Context, in *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := &ec2.TerminateInstancesOutput{}
		for _, id := range in.InstanceIds {
			inst, ok := f.Instances[id]
			if !ok {
				return nil, apiError("InvalidInstanceID.NotFound", "The instance ID '%s' does not exist", id)
			}
			prev := inst.States[0]
			inst.States = []ec2types.InstanceStateName{ec2types.InstanceStateNameShuttingDown, ec2types.InstanceStateNameTerminated}
			out.TerminatingInstances = append(out.TerminatingInstances, ec2types.InstanceStateChange{
				InstanceId:    awsv2.String(id),
				PreviousState: &ec2types.InstanceState{Name: prev},
				CurrentState:  &ec2types.InstanceState{Name: ec2types.InstanceStateNameShuttingDown},
			})
		}
		return out, nil
	}

	f.EC2.DescribeImagesFunc = func(_ context.Context, in *ec2.DescribeImagesInput) (*ec2.DescribeImagesOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := &ec2.DescribeImagesOutput{}
		for _, id := range in.ImageIds {
			device := f.RootDevices[id]
			if device == "" {
				device = "/dev/xvda"
			}
			out.Images = append(out.Images, ec2types.Image{ImageId: awsv2.String(id), RootDeviceName: awsv2.String(device)})
		}
		return out, nil
	}
}

// describe renders inst; advance consumes one state from its sequence.
func (f *AccountFixture) describe(inst *FakeInstance, advance bool) ec2types.Instance {
	state := inst.States[0]
	if advance && len(inst.States) > 1 {
		inst.States = inst.States[1:]
	}
	launch := inst.LaunchTime
	return ec2types.Instance{
		InstanceId:       awsv2.String(inst.ID),
		InstanceType:     ec2types.InstanceTypeT3Large,
		State:            &ec2types.InstanceState{Name: state},
		Tags:             inst.Tags,
		LaunchTime:       &launch,
		PrivateIpAddress: awsv2.String("10.0.0.10"),
	}
}

func matchesTagFilters(tags []ec2types.Tag, filters []ec2types.Filter) bool {
	for _, filter := range filters {
		name := awsv2.ToString(filter.Name)
		if len(name) <= 4 || name[:4] != "tag:" {
			continue
		}
		key := name[4:]
		matched := false
		for _, t := range tags {
			if awsv2.ToString(t.Key) != key {
				continue
			}
			for _, v := range filter.Values {
				if awsv2.ToString(t.Value) == v {
					matched = true
				}
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (f *AccountFixture) wireSSM() {
	f.SSM.GetParameterFunc = func(_ context.Context, in *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := awsv2.ToString(in.Name)
		v, ok := f.Parameters[name]
		if !ok {
			return nil, apiError("ParameterNotFound", "Parameter %s not found.", name)
		}
		return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Name: awsv2.String(name), Value: awsv2.String(v)}}, nil
	}

	f.SSM.DescribeInstanceInformationFunc = func(_ context.Context, in *ssm.DescribeInstanceInformationInput) (*ssm.DescribeInstanceInformationOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := &ssm.DescribeInstanceInformationOutput{}
		for _, filter := range in.Filters {
			if awsv2.ToString(filter.Key) != "InstanceIds" {
				continue
			}
			for _, id := range filter.Values {
				inst, ok := f.Instances[id]
				if !ok || len(inst.Pings) == 0 {
					continue
				}
				ping := inst.Pings[0]
				if len(inst.Pings) > 1 {
					inst.Pings = inst.Pings[1:]
				}
				if ping == "" {
					continue
				}
				out.InstanceInformationList = append(out.InstanceInformationList, ssmtypes.InstanceInformation{
					InstanceId: awsv2.String(id),
					PingStatus: ping,
				})
			}
		}
		return out, nil
	}
}
