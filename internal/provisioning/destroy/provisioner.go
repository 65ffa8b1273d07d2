package destroy

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/provisioning/readiness"
	"github.com/imamik/ec2-cli/internal/state"
)

const phase = "destroy"

// Provisioner handles instance destruction.
type Provisioner struct {
	store   *state.Store
	workDir string
}

// NewProvisioner creates a destroy provisioner that forgets instances in
// store and unlinks them from workDir.
func NewProvisioner(store *state.Store, workDir string) *Provisioner {
	return &Provisioner{store: store, workDir: workDir}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision terminates ctx.Result.InstanceID and removes ctx.Name from state.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	id := ctx.Result.InstanceID
	if id == "" {
		return errors.New("no instance to destroy")
	}

	ctx.Observer.Printf("[%s] Terminating instance %s (%s)...", phase, ctx.Name, id)
	provisioning.LogResourceDeleting(ctx.Observer, phase, "instance", id)

	gone, err := p.terminate(ctx, ctx.Session.EC2, id)
	if err != nil {
		return err
	}

	if !gone {
		w := readiness.NewWaiter(ctx.Session,
			readiness.WithObserver(ctx.Observer),
			readiness.WithMetrics(ctx.Metrics),
			readiness.WithClock(ctx.Clock),
			readiness.WithInterval(ctx.Timeouts.PollInterval),
		)
		if err := w.WaitForTerminated(ctx, id, ctx.Timeouts.Terminate); err != nil {
			return err
		}
	}
	provisioning.LogResourceDeleted(ctx.Observer, phase, "instance", id)

	if _, err := p.store.RemoveInstance(ctx, ctx.Name); err != nil {
		return fmt.Errorf("failed to remove %s from state: %w", ctx.Name, err)
	}
	unlinked, err := state.RemoveLink(p.workDir, ctx.Name)
	if err != nil {
		return err
	}
	if unlinked {
		ctx.Observer.Printf("[%s] Removed directory link to %s", phase, ctx.Name)
	}

	ctx.Observer.Printf("[%s] Instance %s destroyed", phase, ctx.Name)
	return nil
}

// terminate requests termination and reports whether the instance was
// already gone.
func (p *Provisioner) terminate(ctx *provisioning.Context, api aws.InstanceAPI, id string) (bool, error) {
	_, err := api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}})
	if err == nil {
		return false, nil
	}
	if aws.IsNotFound(err) {
		ctx.Observer.Printf("[%s] Instance %s no longer exists", phase, id)
		return true, nil
	}
	return false, aws.NewAPIError("EC2", "TerminateInstances", err)
}
