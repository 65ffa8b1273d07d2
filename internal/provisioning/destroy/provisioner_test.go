package destroy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/state"
	testutil "github.com/imamik/ec2-cli/internal/testing"
)

const testInstanceID = "i-00000000000000007"

type destroyEnv struct {
	fixture *testutil.AccountFixture
	store   *state.Store
	workDir string
	ctx     *provisioning.Context
}

func newDestroyEnv(t *testing.T) *destroyEnv {
	t.Helper()
	env := &destroyEnv{
		fixture: testutil.NewAccountFixture(),
		store:   state.NewStore(filepath.Join(t.TempDir(), "state.json")),
		workDir: t.TempDir(),
	}
	env.fixture.AddInstance(&testutil.FakeInstance{
		ID:     testInstanceID,
		States: []ec2types.InstanceStateName{ec2types.InstanceStateNameRunning},
	})
	_, err := env.store.AddInstance(context.Background(), "alpha", testInstanceID, "default", testutil.DefaultRegion)
	require.NoError(t, err)

	env.ctx = provisioning.NewContext(testutil.TestContext(t), env.fixture.Session(), testutil.NewSettingsBuilder().Build(), nil, "alpha")
	env.ctx.Observer = testutil.NewRecordingObserver()
	env.ctx.Clock = testutil.NewFakeClock()
	env.ctx.Result.InstanceID = testInstanceID
	return env
}

func TestProvisionerName(t *testing.T) {
	assert.Equal(t, "destroy", NewProvisioner(nil, "").Name())
}

func TestProvision(t *testing.T) {
	env := newDestroyEnv(t)
	require.NoError(t, state.WriteLink(env.workDir, "alpha"))

	require.NoError(t, NewProvisioner(env.store, env.workDir).Provision(env.ctx))

	assert.Equal(t, 1, env.fixture.EC2.Calls("TerminateInstances"))
	assert.Equal(t, ec2types.InstanceStateNameTerminated, env.fixture.Instance(testInstanceID).States[0])

	rec, err := env.store.GetInstance(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Nil(t, rec)

	linked, err := state.ReadLink(env.workDir)
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestProvision_KeepsOtherLink(t *testing.T) {
	env := newDestroyEnv(t)
	require.NoError(t, state.WriteLink(env.workDir, "beta"))

	require.NoError(t, NewProvisioner(env.store, env.workDir).Provision(env.ctx))

	linked, err := state.ReadLink(env.workDir)
	require.NoError(t, err)
	assert.Equal(t, "beta", linked)
}

func TestProvision_InstanceAlreadyGone(t *testing.T) {
	env := newDestroyEnv(t)
	env.ctx.Result.InstanceID = "i-0vanished"

	require.NoError(t, NewProvisioner(env.store, env.workDir).Provision(env.ctx))

	assert.Zero(t, env.fixture.EC2.Calls("DescribeInstances"), "no wait for an instance that does not exist")
	rec, err := env.store.GetInstance(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestProvision_TerminateFailureKeepsState(t *testing.T) {
	env := newDestroyEnv(t)
	env.fixture.EC2.TerminateInstancesFunc = func(context.Context, *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error) {
		return nil, &smithy.GenericAPIError{Code: "OperationNotPermitted", Message: "termination protection is enabled"}
	}

	err := NewProvisioner(env.store, env.workDir).Provision(env.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "termination protection is enabled")

	rec, err := env.store.GetInstance(context.Background(), "alpha")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, testInstanceID, rec.InstanceID)
}

func TestProvision_NoInstance(t *testing.T) {
	env := newDestroyEnv(t)
	env.ctx.Result.InstanceID = ""
	assert.Error(t, NewProvisioner(env.store, env.workDir).Provision(env.ctx))
}
