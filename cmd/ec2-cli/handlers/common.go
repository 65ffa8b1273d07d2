package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/profile"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/state"
)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	Region      string
	AWSProfile  string
	LogFormat   string
	MetricsFile string
}

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var globals = GlobalOptions{LogFormat: LogFormatText}

// Configure sets the global options for subsequent handler calls.
func Configure(opts GlobalOptions) {
	if opts.LogFormat == "" {
		opts.LogFormat = LogFormatText
	}
	globals = opts
}

// Provisioner interface for testing - matches provisioning.Phase.
type Provisioner interface {
	Name() string
	Provision(ctx *provisioning.Context) error
}

// Factory function variables - can be replaced in tests.
var (
	// establishSession verifies credentials for region, or the SDK default
	// region when empty.
	establishSession = func(ctx context.Context, region string) (*aws.Session, error) {
		return aws.Establish(ctx, aws.EstablishOptions{Region: region, Profile: globals.AWSProfile})
	}

	loadSettings = config.Load

	saveSettings = func(s *config.Settings) error {
		return s.Save(config.SettingsPath())
	}

	newStateStore = state.DefaultStore

	newProfileLoader = func(workDir string) *profile.Loader {
		return &profile.Loader{
			LocalDir:  filepath.Join(workDir, config.LocalDirName, "profiles"),
			GlobalDir: config.GlobalProfileDir(),
		}
	}

	newProvisioningContext = provisioning.NewContext

	newObserver = func() provisioning.Observer {
		if globals.LogFormat == LogFormatJSON {
			return provisioning.NewJSONObserver(os.Stderr)
		}
		return provisioning.NewConsoleObserver()
	}

	getWorkDir = os.Getwd

	stdout io.Writer = os.Stdout
)

// settingsRegion returns the region an operator asked for: the --region
// flag first, then the settings document.
func settingsRegion(s *config.Settings) string {
	if globals.Region != "" {
		return globals.Region
	}
	return s.Region
}

// loadValidSettings loads and validates the settings document.
func loadValidSettings() (*config.Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", config.SettingsPath(), err)
	}
	return settings, nil
}

// writeMetrics writes the run's metrics when --metrics-file is set.
func writeMetrics(m *provisioning.Metrics) {
	if globals.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(globals.MetricsFile); err != nil {
		log.Printf("Warning: failed to write metrics file: %v", err)
	}
}

// lookupRecord returns the state record for name.
func lookupRecord(ctx context.Context, store *state.Store, name string) (*state.InstanceRecord, error) {
	rec, err := store.GetInstance(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &state.NotFoundError{Name: name}
	}
	return rec, nil
}
