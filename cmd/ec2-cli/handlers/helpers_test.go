package handlers

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/profile"
	"github.com/imamik/ec2-cli/internal/provisioning"
	testutil "github.com/imamik/ec2-cli/internal/testing"
)

// handlerEnv isolates a handler test: settings and state live in temp
// directories and every AWS call goes to an in-memory account.
type handlerEnv struct {
	fixture  *testutil.AccountFixture
	workDir  string
	out      *bytes.Buffer
	observer *testutil.RecordingObserver
	clock    *testutil.FakeClock
	// regions records the region of every session established.
	regions []string
}

func setupHandlers(t *testing.T) *handlerEnv {
	t.Helper()
	t.Setenv(config.EnvConfigDir, t.TempDir())
	t.Setenv(config.EnvStateDir, t.TempDir())

	env := &handlerEnv{
		fixture:  testutil.NewAccountFixture(),
		workDir:  t.TempDir(),
		out:      &bytes.Buffer{},
		observer: testutil.NewRecordingObserver(),
		clock:    testutil.NewFakeClock(),
	}

	origSession := establishSession
	origWorkDir := getWorkDir
	origStdout := stdout
	origObserver := newObserver
	origCtx := newProvisioningContext
	origInteractive := isInteractive
	origGlobals := globals
	t.Cleanup(func() {
		establishSession = origSession
		getWorkDir = origWorkDir
		stdout = origStdout
		newObserver = origObserver
		newProvisioningContext = origCtx
		isInteractive = origInteractive
		globals = origGlobals
	})

	establishSession = func(_ context.Context, region string) (*aws.Session, error) {
		env.regions = append(env.regions, region)
		sess := env.fixture.Session()
		if region != "" {
			sess.Region = region
		}
		return sess, nil
	}
	getWorkDir = func() (string, error) { return env.workDir, nil }
	stdout = env.out
	newObserver = func() provisioning.Observer { return env.observer }
	newProvisioningContext = func(ctx context.Context, sess *aws.Session, settings *config.Settings, prof *profile.Profile, name string) *provisioning.Context {
		pCtx := provisioning.NewContext(ctx, sess, settings, prof, name)
		pCtx.Clock = env.clock
		return pCtx
	}
	isInteractive = func() bool { return false }
	globals = GlobalOptions{LogFormat: LogFormatText}
	return env
}

func writeSettings(t *testing.T, s *config.Settings) {
	t.Helper()
	require.NoError(t, s.Save(config.SettingsPath()))
}

func launchableSettings() *config.Settings {
	return testutil.NewSettingsBuilder().
		WithSubnet(testutil.DefaultSubnetID).
		WithTag(config.UsernameTagKey, "alice").
		Build()
}
