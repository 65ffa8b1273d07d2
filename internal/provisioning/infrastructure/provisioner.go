package infrastructure

import (
	"context"
	"time"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/util/naming"
	"github.com/imamik/ec2-cli/internal/util/retry"
)

const defaultSettleInitialDelay = 2 * time.Second

// Resolver resolves the network placement and permission binding a launch needs.
type Resolver struct {
	network  aws.NetworkAPI
	iam      aws.IAMAPI
	observer provisioning.Observer
	metrics  *provisioning.Metrics

	settleTimeout      time.Duration
	settleInitialDelay time.Duration
	clock              retry.Clock
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObserver sets the observer for resource events.
func WithObserver(o provisioning.Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithMetrics records created bindings into m.
func WithMetrics(m *provisioning.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithSettle bounds how long a new instance profile is polled and how soon
// the first re-check happens.
func WithSettle(timeout, initialDelay time.Duration) Option {
	return func(r *Resolver) {
		r.settleTimeout = timeout
		if initialDelay > 0 {
			r.settleInitialDelay = initialDelay
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock retry.Clock) Option {
	return func(r *Resolver) { r.clock = clock }
}

// NewResolver creates a resolver for the session's account and region.
func NewResolver(sess *aws.Session, opts ...Option) *Resolver {
	r := &Resolver{
		network:            sess.EC2,
		iam:                sess.IAM,
		observer:           provisioning.NewConsoleObserver(),
		settleTimeout:      config.LoadTimeouts().ProfileSettle,
		settleInitialDelay: defaultSettleInitialDelay,
		clock:              retry.RealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the placement and permission binding for a launch. It is
// idempotent: repeated calls against a prepared account create nothing.
func (r *Resolver) Resolve(ctx context.Context, settings *config.Settings) (*provisioning.Infrastructure, error) {
	vpcID, subnetID, err := r.ResolvePlacement(ctx, settings)
	if err != nil {
		return nil, err
	}

	binding, err := r.EnsurePermissionBinding(ctx)
	if err != nil {
		return nil, err
	}

	return &provisioning.Infrastructure{
		VpcID:               vpcID,
		SubnetID:            subnetID,
		RoleName:            binding.RoleName,
		InstanceProfileName: binding.ProfileName,
		InstanceProfileARN:  binding.ProfileARN,
		BindingCreated:      binding.Created,
	}, nil
}

// Provisioner is the pipeline phase that resolves infrastructure.
type Provisioner struct{}

// NewProvisioner creates a new infrastructure provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	r := NewResolver(ctx.Session,
		WithObserver(ctx.Observer),
		WithMetrics(ctx.Metrics),
		WithSettle(ctx.Timeouts.ProfileSettle, ctx.Timeouts.RetryInitialDelay),
		WithClock(ctx.Clock),
	)

	infra, err := r.Resolve(ctx, ctx.Settings)
	if err != nil {
		return err
	}
	ctx.Result.Infrastructure = infra

	ctx.Observer.Printf("[%s] Placement: subnet %s in %s; instance profile %s",
		phase, infra.SubnetID, infra.VpcID, naming.InstanceProfileName)
	return nil
}
