package provisioning

import (
	"context"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/profile"
	"github.com/imamik/ec2-cli/internal/util/retry"
)

// Infrastructure is the resolved placement and permission binding for a launch.
type Infrastructure struct {
	VpcID               string
	SubnetID            string
	RoleName            string
	InstanceProfileName string
	InstanceProfileARN  string

	// BindingCreated is true when this run created the role or the instance
	// profile, so EC2 may not see the profile yet.
	BindingCreated bool
}

// Result holds the shared results of provisioning phases.
// It is progressively populated as each phase completes.
type Result struct {
	// Populated by the infrastructure phase.
	Infrastructure *Infrastructure

	// Populated by the launch phase.
	InstanceID string
	ImageID    string

	// Populated by the readiness phase.
	Running    bool
	AgentReady bool
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Session  *aws.Session
	Settings *config.Settings
	Profile  *profile.Profile

	// Name is the operator-chosen instance name.
	Name string
	// Bootstrap is the raw user data script.
	Bootstrap string

	Result   *Result
	Observer Observer
	Metrics  *Metrics
	Timeouts *config.Timeouts
	Clock    retry.Clock
}

// NewContext creates a new provisioning context.
func NewContext(
	ctx context.Context,
	session *aws.Session,
	settings *config.Settings,
	prof *profile.Profile,
	name string,
) *Context {
	return &Context{
		Context:  ctx,
		Session:  session,
		Settings: settings,
		Profile:  prof,
		Name:     name,
		Result:   &Result{},
		Observer: NewConsoleObserver(),
		Metrics:  NewMetrics(),
		Timeouts: config.LoadTimeouts(),
		Clock:    retry.RealClock(),
	}
}
