package readiness

import (
	"errors"

	"github.com/imamik/ec2-cli/internal/provisioning"
)

// Provisioner is the pipeline phase that waits for the instance to be
// running and its agent to be online.
type Provisioner struct{}

// NewProvisioner creates a new readiness provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	id := ctx.Result.InstanceID
	if id == "" {
		return errors.New("no instance launched")
	}

	w := NewWaiter(ctx.Session,
		WithObserver(ctx.Observer),
		WithMetrics(ctx.Metrics),
		WithClock(ctx.Clock),
		WithInterval(ctx.Timeouts.PollInterval),
	)

	ctx.Observer.Printf("[%s] Waiting for instance %s to be running...", phase, id)
	if err := w.WaitForRunning(ctx, id, ctx.Timeouts.Running); err != nil {
		return err
	}
	ctx.Result.Running = true

	ctx.Observer.Printf("[%s] Waiting for SSM agent on %s...", phase, id)
	if err := w.WaitForAgentReady(ctx, id, ctx.Timeouts.AgentReady); err != nil {
		return err
	}
	ctx.Result.AgentReady = true
	return nil
}
