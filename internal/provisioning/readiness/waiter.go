package readiness

import (
	"context"
	"fmt"
	"time"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/util/retry"
)

// Wait conditions, used as metric labels.
const (
	ConditionRunning    = "running"
	ConditionAgentReady = "agent-ready"
	ConditionTerminated = "terminated"
)

const phase = "readiness"

// Waiter polls instance and agent status.
type Waiter struct {
	instances aws.InstanceAPI
	agents    aws.AgentAPI
	observer  provisioning.Observer
	metrics   *provisioning.Metrics
	clock     retry.Clock
	interval  time.Duration
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithObserver sets the observer for wait events.
func WithObserver(o provisioning.Observer) Option {
	return func(w *Waiter) { w.observer = o }
}

// WithMetrics records wait durations into m.
func WithMetrics(m *provisioning.Metrics) Option {
	return func(w *Waiter) { w.metrics = m }
}

// WithClock replaces the wall clock.
func WithClock(clock retry.Clock) Option {
	return func(w *Waiter) { w.clock = clock }
}

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Waiter) { w.interval = d }
}

// NewWaiter creates a waiter over the session's EC2 and SSM clients.
func NewWaiter(sess *aws.Session, opts ...Option) *Waiter {
	w := &Waiter{
		instances: sess.EC2,
		agents:    sess.SSM,
		observer:  provisioning.NewConsoleObserver(),
		clock:     retry.RealClock(),
		interval:  config.LoadTimeouts().PollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitForRunning waits until instanceID is running. Terminal states fail
// immediately with an *InstanceStateError.
func (w *Waiter) WaitForRunning(ctx context.Context, instanceID string, timeout time.Duration) error {
	return w.wait(ctx, ConditionRunning, instanceID, timeout, func(ctx context.Context) (string, bool, error) {
		inst, err := DescribeInstance(ctx, w.instances, instanceID)
		if err != nil {
			// A just-launched instance may not be describable yet.
			if IsInstanceGone(err) {
				return "not-found", false, nil
			}
			return "", false, err
		}

		state := InstanceState(inst)
		switch ec2types.InstanceStateName(state) {
		case ec2types.InstanceStateNameRunning:
			return state, true, nil
		case ec2types.InstanceStateNameTerminated,
			ec2types.InstanceStateNameShuttingDown,
			ec2types.InstanceStateNameStopping,
			ec2types.InstanceStateNameStopped:
			reason := ""
			if inst.StateReason != nil && inst.StateReason.Message != nil {
				reason = *inst.StateReason.Message
			}
			return state, false, &InstanceStateError{InstanceID: instanceID, State: state, Reason: reason}
		}
		return state, false, nil
	})
}

// WaitForAgentReady waits until the SSM agent on instanceID reports Online.
func (w *Waiter) WaitForAgentReady(ctx context.Context, instanceID string, timeout time.Duration) error {
	return w.wait(ctx, ConditionAgentReady, instanceID, timeout, func(ctx context.Context) (string, bool, error) {
		status, err := AgentPingStatus(ctx, w.agents, instanceID)
		if err != nil {
			return "", false, err
		}
		if status == "" {
			return "unregistered", false, nil
		}
		return status, status == string(ssmtypes.PingStatusOnline), nil
	})
}

// WaitForTerminated waits until instanceID is terminated or no longer exists.
func (w *Waiter) WaitForTerminated(ctx context.Context, instanceID string, timeout time.Duration) error {
	return w.wait(ctx, ConditionTerminated, instanceID, timeout, func(ctx context.Context) (string, bool, error) {
		inst, err := DescribeInstance(ctx, w.instances, instanceID)
		if err != nil {
			if IsInstanceGone(err) {
				return "not-found", true, nil
			}
			return "", false, err
		}
		state := InstanceState(inst)
		return state, state == string(ec2types.InstanceStateNameTerminated), nil
	})
}

func (w *Waiter) wait(ctx context.Context, condition, instanceID string, timeout time.Duration, check retry.Condition) error {
	start := w.clock.Now()
	err := retry.Poll(ctx, w.interval, timeout, check,
		retry.WithDescription(fmt.Sprintf("instance %s %s", instanceID, condition)),
		retry.WithClock(w.clock),
		retry.WithOnTick(func(status string, elapsed time.Duration) {
			provisioning.LogWaiting(w.observer, phase, instanceID, status, elapsed)
		}),
	)
	elapsed := w.clock.Now().Sub(start)
	w.metrics.ObserveWait(condition, err, elapsed)
	if err != nil {
		return err
	}
	provisioning.LogReady(w.observer, phase, instanceID, condition, elapsed)
	return nil
}
