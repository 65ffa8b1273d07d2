package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/state"
	testutil "github.com/imamik/ec2-cli/internal/testing"
)

const recordedID = "i-0000000000000000a"

func seedInstance(t *testing.T, env *handlerEnv, name, region string) {
	t.Helper()
	env.fixture.AddInstance(&testutil.FakeInstance{
		ID:     recordedID,
		States: []ec2types.InstanceStateName{ec2types.InstanceStateNameRunning},
	})
	_, err := state.DefaultStore().AddInstance(context.Background(), name, recordedID, "default", region)
	require.NoError(t, err)
}

func requireForgotten(t *testing.T, name string) {
	t.Helper()
	rec, err := state.DefaultStore().GetInstance(context.Background(), name)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func requireRecorded(t *testing.T, name string) {
	t.Helper()
	rec, err := state.DefaultStore().GetInstance(context.Background(), name)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestDestroy(t *testing.T) {
	env := setupHandlers(t)
	seedInstance(t, env, "alpha", "eu-west-1")
	require.NoError(t, state.WriteLink(env.workDir, "alpha"))

	require.NoError(t, Destroy(context.Background(), DestroyOptions{Name: "alpha", Force: true}))

	assert.Equal(t, []string{"eu-west-1"}, env.regions, "destroy uses the recorded region")
	assert.Equal(t, 1, env.fixture.EC2.Calls("TerminateInstances"))
	assert.Equal(t, ec2types.InstanceStateNameTerminated, env.fixture.Instance(recordedID).States[0])
	requireForgotten(t, "alpha")
	assert.Equal(t, "alpha", env.observer.Fields()["instance"])

	linked, err := state.ReadLink(env.workDir)
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestDestroy_IgnoresInvalidSettings(t *testing.T) {
	t.Run("invalid custom tag", func(t *testing.T) {
		env := setupHandlers(t)
		seedInstance(t, env, "alpha", "eu-west-1")
		writeSettings(t, &config.Settings{Tags: map[string]string{"aws:reserved": "x"}})

		require.NoError(t, Destroy(context.Background(), DestroyOptions{Name: "alpha", Force: true}))
		assert.Equal(t, 1, env.fixture.EC2.Calls("TerminateInstances"))
		requireForgotten(t, "alpha")
	})

	t.Run("unreadable settings file", func(t *testing.T) {
		env := setupHandlers(t)
		seedInstance(t, env, "alpha", "eu-west-1")
		require.NoError(t, os.WriteFile(config.SettingsPath(), []byte("{not json"), 0o600))

		require.NoError(t, Destroy(context.Background(), DestroyOptions{Name: "alpha", Force: true}))
		requireForgotten(t, "alpha")
	})
}

func TestDestroy_LinkedInstance(t *testing.T) {
	env := setupHandlers(t)
	seedInstance(t, env, "alpha", testutil.DefaultRegion)
	require.NoError(t, state.WriteLink(env.workDir, "alpha"))

	require.NoError(t, Destroy(context.Background(), DestroyOptions{Force: true}))
	requireForgotten(t, "alpha")
}

func TestDestroy_AlreadyGone(t *testing.T) {
	setupHandlers(t)
	_, err := state.DefaultStore().AddInstance(context.Background(), "alpha", "i-0vanished", "default", testutil.DefaultRegion)
	require.NoError(t, err)

	require.NoError(t, Destroy(context.Background(), DestroyOptions{Name: "alpha", Force: true}))
	requireForgotten(t, "alpha")
}

func TestDestroy_UnknownInstance(t *testing.T) {
	t.Run("no name and no link", func(t *testing.T) {
		env := setupHandlers(t)

		err := Destroy(context.Background(), DestroyOptions{Force: true})
		var nf *state.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Empty(t, env.regions)
	})

	t.Run("name not in state", func(t *testing.T) {
		env := setupHandlers(t)

		err := Destroy(context.Background(), DestroyOptions{Name: "ghost", Force: true})
		var nf *state.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "ghost", nf.Name)
		assert.Empty(t, env.regions)
	})
}

func TestDestroy_Confirmation(t *testing.T) {
	t.Run("refused without a terminal", func(t *testing.T) {
		env := setupHandlers(t)
		seedInstance(t, env, "alpha", testutil.DefaultRegion)

		err := Destroy(context.Background(), DestroyOptions{Name: "alpha"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--force")
		assert.Zero(t, env.fixture.EC2.Calls("TerminateInstances"))
		requireRecorded(t, "alpha")
	})

	for _, answer := range []bool{false, true} {
		t.Run(fmt.Sprintf("prompt answered %t", answer), func(t *testing.T) {
			env := setupHandlers(t)
			seedInstance(t, env, "alpha", testutil.DefaultRegion)

			origConfirm := promptConfirm
			defer func() { promptConfirm = origConfirm }()
			isInteractive = func() bool { return true }
			var asked string
			promptConfirm = func(_ context.Context, title string) (bool, error) {
				asked = title
				return answer, nil
			}

			require.NoError(t, Destroy(context.Background(), DestroyOptions{Name: "alpha"}))
			assert.Contains(t, asked, recordedID)
			if answer {
				requireForgotten(t, "alpha")
			} else {
				requireRecorded(t, "alpha")
				assert.Zero(t, env.fixture.EC2.Calls("TerminateInstances"))
			}
		})
	}
}

func TestDestroy_ProvisionerFailure(t *testing.T) {
	env := setupHandlers(t)
	seedInstance(t, env, "alpha", testutil.DefaultRegion)

	orig := newDestroyProvisioner
	defer func() { newDestroyProvisioner = orig }()
	newDestroyProvisioner = func(_ *state.Store, _ string) Provisioner {
		return &failingPhase{err: errors.New("boom")}
	}

	err := Destroy(context.Background(), DestroyOptions{Name: "alpha", Force: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destroy failed")
	requireRecorded(t, "alpha")
}

type failingPhase struct{ err error }

func (p *failingPhase) Name() string { return "destroy" }

func (p *failingPhase) Provision(_ *provisioning.Context) error { return p.err }
