package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/profile"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/provisioning/infrastructure"
	"github.com/imamik/ec2-cli/internal/state"
	testutil "github.com/imamik/ec2-cli/internal/testing"
	"github.com/imamik/ec2-cli/internal/util/retry"
)

const firstInstanceID = "i-00000000000000001"

func TestUp(t *testing.T) {
	env := setupHandlers(t)
	writeSettings(t, launchableSettings())

	err := Up(context.Background(), UpOptions{Name: "alpha", Link: true})
	require.NoError(t, err)

	rec, err := state.DefaultStore().GetInstance(context.Background(), "alpha")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, firstInstanceID, rec.InstanceID)
	assert.Equal(t, profile.DefaultName, rec.Profile)
	assert.Equal(t, testutil.DefaultRegion, rec.Region)

	linked, err := state.ReadLink(env.workDir)
	require.NoError(t, err)
	assert.Equal(t, "alpha", linked)

	require.Len(t, env.fixture.RunInputs, 1)
	in := env.fixture.RunInputs[0]
	assert.Equal(t, testutil.DefaultSubnetID, awsv2.ToString(in.SubnetId))
	assert.Equal(t, "ami-0al2023x86", awsv2.ToString(in.ImageId))
	assert.NotEmpty(t, awsv2.ToString(in.UserData))

	tags := env.fixture.Instance(firstInstanceID).Tags
	assert.Equal(t, "alpha", aws.TagValue(tags, aws.NameTagKey))
	assert.Equal(t, "alice", aws.TagValue(tags, config.UsernameTagKey))

	assert.Contains(t, env.out.String(), "Instance alpha is ready")
	assert.Contains(t, env.out.String(), "aws ssm start-session --target "+firstInstanceID+" --region "+testutil.DefaultRegion)
	assert.Equal(t, []string{""}, env.regions)
	assert.Equal(t, "alpha", env.observer.Fields()["instance"])
	assert.Len(t, env.observer.EventsOfType(provisioning.EventProgress), 3)
}

func TestUp_WithoutLink(t *testing.T) {
	env := setupHandlers(t)
	writeSettings(t, launchableSettings())

	require.NoError(t, Up(context.Background(), UpOptions{Name: "alpha"}))

	linked, err := state.ReadLink(env.workDir)
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestUp_GeneratesName(t *testing.T) {
	setupHandlers(t)
	writeSettings(t, launchableSettings())

	orig := generateInstanceName
	defer func() { generateInstanceName = orig }()
	generateInstanceName = func() string { return "brave-otter" }

	require.NoError(t, Up(context.Background(), UpOptions{}))

	rec, err := state.DefaultStore().GetInstance(context.Background(), "brave-otter")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestUp_RegionPrecedence(t *testing.T) {
	t.Run("settings region", func(t *testing.T) {
		env := setupHandlers(t)
		s := launchableSettings()
		s.Region = "us-east-1"
		writeSettings(t, s)

		require.NoError(t, Up(context.Background(), UpOptions{Name: "alpha"}))
		assert.Equal(t, []string{"us-east-1"}, env.regions)
	})

	t.Run("flag wins over settings", func(t *testing.T) {
		env := setupHandlers(t)
		s := launchableSettings()
		s.Region = "us-east-1"
		writeSettings(t, s)
		globals.Region = "eu-central-1"

		require.NoError(t, Up(context.Background(), UpOptions{Name: "alpha"}))
		assert.Equal(t, []string{"eu-central-1"}, env.regions)

		rec, err := state.DefaultStore().GetInstance(context.Background(), "alpha")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "eu-central-1", rec.Region)
	})
}

func TestUp_LocalProfile(t *testing.T) {
	env := setupHandlers(t)
	writeSettings(t, launchableSettings())

	dir := filepath.Join(env.workDir, config.LocalDirName, "profiles")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graviton.yaml"), []byte("name: graviton\ninstance:\n  type: m7g.large\n"), 0o644))

	require.NoError(t, Up(context.Background(), UpOptions{Name: "alpha", Profile: "graviton"}))

	require.Len(t, env.fixture.RunInputs, 1)
	in := env.fixture.RunInputs[0]
	assert.Equal(t, ec2types.InstanceType("m7g.large"), in.InstanceType)
	assert.Equal(t, "ami-0al2023arm", awsv2.ToString(in.ImageId))

	rec, err := state.DefaultStore().GetInstance(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "graviton", rec.Profile)
}

func TestUp_RejectsBeforeContactingAWS(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T)
		opts  UpOptions
		check func(t *testing.T, err error)
	}{
		{
			name: "existing name",
			setup: func(t *testing.T) {
				_, err := state.DefaultStore().AddInstance(context.Background(), "alpha", "i-0existing", "default", testutil.DefaultRegion)
				require.NoError(t, err)
			},
			opts: UpOptions{Name: "alpha"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), `instance "alpha" already exists`)
			},
		},
		{
			name:  "invalid name",
			opts:  UpOptions{Name: "Not_Valid"},
			check: func(t *testing.T, err error) { assert.Error(t, err) },
		},
		{
			name: "unknown profile",
			opts: UpOptions{Name: "alpha", Profile: "missing"},
			check: func(t *testing.T, err error) {
				var nf *profile.NotFoundError
				assert.ErrorAs(t, err, &nf)
			},
		},
		{
			name: "invalid settings",
			setup: func(t *testing.T) {
				s := launchableSettings()
				s.Tags["aws:reserved"] = "x"
				writeSettings(t, s)
			},
			opts: UpOptions{Name: "alpha"},
			check: func(t *testing.T, err error) {
				var ve *config.ValidationError
				assert.ErrorAs(t, err, &ve)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupHandlers(t)
			writeSettings(t, launchableSettings())
			if tt.setup != nil {
				tt.setup(t)
			}

			err := Up(context.Background(), tt.opts)
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, env.regions)
			assert.Empty(t, env.fixture.RunInputs)
		})
	}
}

func TestUp_MissingSubnet(t *testing.T) {
	env := setupHandlers(t)
	writeSettings(t, &config.Settings{Tags: map[string]string{config.UsernameTagKey: "alice"}})

	err := Up(context.Background(), UpOptions{Name: "alpha"})
	require.Error(t, err)
	assert.True(t, infrastructure.IsKind(err, infrastructure.KindNotConfigured))
	assert.Empty(t, env.fixture.RunInputs)

	rec, err := state.DefaultStore().GetInstance(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUp_ReadinessTimeoutStillRecorded(t *testing.T) {
	env := setupHandlers(t)
	writeSettings(t, launchableSettings())
	t.Setenv("EC2CLI_TIMEOUT_AGENT", "30s")
	env.fixture.LaunchPings = []ssmtypes.PingStatus{""}

	err := Up(context.Background(), UpOptions{Name: "alpha", Link: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, retry.ErrTimeout))

	rec, err := state.DefaultStore().GetInstance(context.Background(), "alpha")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, firstInstanceID, rec.InstanceID)

	linked, err := state.ReadLink(env.workDir)
	require.NoError(t, err)
	assert.Equal(t, "alpha", linked)
	assert.NotContains(t, env.out.String(), "is ready")
}

func TestUp_WritesMetricsFile(t *testing.T) {
	setupHandlers(t)
	writeSettings(t, launchableSettings())
	path := filepath.Join(t.TempDir(), "ec2cli.prom")
	globals.MetricsFile = path

	require.NoError(t, Up(context.Background(), UpOptions{Name: "alpha"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ec2cli_provision_total{result="succeeded"} 1`)
	assert.Contains(t, string(data), "ec2cli_phase_duration_seconds")
}
