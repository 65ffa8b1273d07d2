package compute

import (
	"errors"

	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/provisioning"
)

const phase = "launch"

// Provisioner is the pipeline phase that launches the instance.
type Provisioner struct{}

// NewProvisioner creates a new launch provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	infra := ctx.Result.Infrastructure
	if infra == nil {
		return errors.New("infrastructure not resolved")
	}
	if ctx.Profile == nil {
		return errors.New("no profile selected")
	}

	req := BuildLaunchRequest(ctx.Profile, infra, ctx.Name, ctx.Settings.Tags, ctx.Settings.AllowTagOverride, ctx.Bootstrap)

	launcher := NewLauncher(ctx.Session, ctx.Observer, ctx.Clock, ctx.Timeouts.RetryMaxAttempts, ctx.Timeouts.RetryInitialDelay)
	if err := launcher.Prepare(ctx, req, ctx.Profile.Instance.AMI); err != nil {
		return err
	}
	ctx.Result.ImageID = req.ImageID

	provisioning.LogResourceCreating(ctx.Observer, phase, "instance", req.Tags[aws.AWSNameTag])
	id, err := launcher.Launch(ctx, req, infra.BindingCreated)
	if err != nil {
		return err
	}
	ctx.Result.InstanceID = id
	provisioning.LogResourceCreated(ctx.Observer, phase, "instance", req.Tags[aws.AWSNameTag], id)

	ctx.Observer.Printf("[%s] Instance %s (%s, %s) launched in %s", phase, id, req.InstanceType, req.ImageID, infra.SubnetID)
	return nil
}
