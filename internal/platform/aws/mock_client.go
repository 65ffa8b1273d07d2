package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// callCounter records how often each operation was invoked.
type callCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *callCounter) record(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[op]++
}

// Calls returns how often op was invoked.
func (c *callCounter) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// MockEC2Client is a mock implementation of EC2API. Unset funcs return an
// empty output and no error.
type MockEC2Client struct {
	callCounter

	DescribeVpcsFunc       func(ctx context.Context, params *ec2.DescribeVpcsInput) (*ec2.DescribeVpcsOutput, error)
	DescribeSubnetsFunc    func(ctx context.Context, params *ec2.DescribeSubnetsInput) (*ec2.DescribeSubnetsOutput, error)
	RunInstancesFunc       func(ctx context.Context, params *ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error)
	DescribeInstancesFunc  func(ctx context.Context, params *ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error)
	TerminateInstancesFunc func(ctx context.Context, params *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error)
	DescribeImagesFunc     func(ctx context.Context, params *ec2.DescribeImagesInput) (*ec2.DescribeImagesOutput, error)
}

var _ EC2API = (*MockEC2Client)(nil)

// DescribeVpcs mocks VPC lookup.
func (m *MockEC2Client) DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	m.record("DescribeVpcs")
	if m.DescribeVpcsFunc != nil {
		return m.DescribeVpcsFunc(ctx, params)
	}
	return &ec2.DescribeVpcsOutput{}, nil
}

// DescribeSubnets mocks subnet lookup.
func (m *MockEC2Client) DescribeSubnets(ctx context.Context, params *ec2.DescribeSubnetsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	m.record("DescribeSubnets")
	if m.DescribeSubnetsFunc != nil {
		return m.DescribeSubnetsFunc(ctx, params)
	}
	return &ec2.DescribeSubnetsOutput{}, nil
}

// RunInstances mocks instance creation.
func (m *MockEC2Client) RunInstances(ctx context.Context, params *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	m.record("RunInstances")
	if m.RunInstancesFunc != nil {
		return m.RunInstancesFunc(ctx, params)
	}
	return &ec2.RunInstancesOutput{}, nil
}

// DescribeInstances mocks instance lookup.
func (m *MockEC2Client) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	m.record("DescribeInstances")
	if m.DescribeInstancesFunc != nil {
		return m.DescribeInstancesFunc(ctx, params)
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

// TerminateInstances mocks instance termination.
func (m *MockEC2Client) TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	m.record("TerminateInstances")
	if m.TerminateInstancesFunc != nil {
		return m.TerminateInstancesFunc(ctx, params)
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

// DescribeImages mocks image lookup.
func (m *MockEC2Client) DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	m.record("DescribeImages")
	if m.DescribeImagesFunc != nil {
		return m.DescribeImagesFunc(ctx, params)
	}
	return &ec2.DescribeImagesOutput{}, nil
}

// MockIAMClient is a mock implementation of IAMAPI.
type MockIAMClient struct {
	callCounter

	GetRoleFunc                  func(ctx context.Context, params *iam.GetRoleInput) (*iam.GetRoleOutput, error)
	CreateRoleFunc               func(ctx context.Context, params *iam.CreateRoleInput) (*iam.CreateRoleOutput, error)
	PutRolePolicyFunc            func(ctx context.Context, params *iam.PutRolePolicyInput) (*iam.PutRolePolicyOutput, error)
	GetInstanceProfileFunc       func(ctx context.Context, params *iam.GetInstanceProfileInput) (*iam.GetInstanceProfileOutput, error)
	CreateInstanceProfileFunc    func(ctx context.Context, params *iam.CreateInstanceProfileInput) (*iam.CreateInstanceProfileOutput, error)
	AddRoleToInstanceProfileFunc func(ctx context.Context, params *iam.AddRoleToInstanceProfileInput) (*iam.AddRoleToInstanceProfileOutput, error)
}

var _ IAMAPI = (*MockIAMClient)(nil)

// GetRole mocks role lookup.
func (m *MockIAMClient) GetRole(ctx context.Context, params *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	m.record("GetRole")
	if m.GetRoleFunc != nil {
		return m.GetRoleFunc(ctx, params)
	}
	return &iam.GetRoleOutput{}, nil
}

// CreateRole mocks role creation.
func (m *MockIAMClient) CreateRole(ctx context.Context, params *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	m.record("CreateRole")
	if m.CreateRoleFunc != nil {
		return m.CreateRoleFunc(ctx, params)
	}
	return &iam.CreateRoleOutput{}, nil
}

// PutRolePolicy mocks inline policy attachment.
func (m *MockIAMClient) PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, _ ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error) {
	m.record("PutRolePolicy")
	if m.PutRolePolicyFunc != nil {
		return m.PutRolePolicyFunc(ctx, params)
	}
	return &iam.PutRolePolicyOutput{}, nil
}

// GetInstanceProfile mocks instance profile lookup.
func (m *MockIAMClient) GetInstanceProfile(ctx context.Context, params *iam.GetInstanceProfileInput, _ ...func(*iam.Options)) (*iam.GetInstanceProfileOutput, error) {
	m.record("GetInstanceProfile")
	if m.GetInstanceProfileFunc != nil {
		return m.GetInstanceProfileFunc(ctx, params)
	}
	return &iam.GetInstanceProfileOutput{}, nil
}

// CreateInstanceProfile mocks instance profile creation.
func (m *MockIAMClient) CreateInstanceProfile(ctx context.Context, params *iam.CreateInstanceProfileInput, _ ...func(*iam.Options)) (*iam.CreateInstanceProfileOutput, error) {
	m.record("CreateInstanceProfile")
	if m.CreateInstanceProfileFunc != nil {
		return m.CreateInstanceProfileFunc(ctx, params)
	}
	return &iam.CreateInstanceProfileOutput{}, nil
}

// AddRoleToInstanceProfile mocks role attachment.
func (m *MockIAMClient) AddRoleToInstanceProfile(ctx context.Context, params *iam.AddRoleToInstanceProfileInput, _ ...func(*iam.Options)) (*iam.AddRoleToInstanceProfileOutput, error) {
	m.record("AddRoleToInstanceProfile")
	if m.AddRoleToInstanceProfileFunc != nil {
		return m.AddRoleToInstanceProfileFunc(ctx, params)
	}
	return &iam.AddRoleToInstanceProfileOutput{}, nil
}

// MockSSMClient is a mock implementation of SSMAPI.
type MockSSMClient struct {
	callCounter

	DescribeInstanceInformationFunc func(ctx context.Context, params *ssm.DescribeInstanceInformationInput) (*ssm.DescribeInstanceInformationOutput, error)
	GetParameterFunc                func(ctx context.Context, params *ssm.GetParameterInput) (*ssm.GetParameterOutput, error)
}

var _ SSMAPI = (*MockSSMClient)(nil)

// DescribeInstanceInformation mocks agent registration lookup.
func (m *MockSSMClient) DescribeInstanceInformation(ctx context.Context, params *ssm.DescribeInstanceInformationInput, _ ...func(*ssm.Options)) (*ssm.DescribeInstanceInformationOutput, error) {
	m.record("DescribeInstanceInformation")
	if m.DescribeInstanceInformationFunc != nil {
		return m.DescribeInstanceInformationFunc(ctx, params)
	}
	return &ssm.DescribeInstanceInformationOutput{}, nil
}

// GetParameter mocks parameter lookup.
func (m *MockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	m.record("GetParameter")
	if m.GetParameterFunc != nil {
		return m.GetParameterFunc(ctx, params)
	}
	return &ssm.GetParameterOutput{}, nil
}
