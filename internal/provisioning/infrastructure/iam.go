package infrastructure

import (
	"context"
	"errors"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/util/naming"
	"github.com/imamik/ec2-cli/internal/util/retry"
)

const phase = "infrastructure"

// Binding is the role and instance profile pair an instance runs with.
type Binding struct {
	RoleName    string
	ProfileName string
	ProfileARN  string
	// Created is true when this call created the role or the profile.
	Created bool
}

// errRoleNotAttached is returned while a new profile does not list its role yet.
var errRoleNotAttached = errors.New("instance profile does not list its role yet")

// EnsurePermissionBinding gets or creates the well-known role and instance
// profile. Existing resources are reused untouched; "already exists" on
// create counts as success. When anything was created, the profile is polled
// until IAM reports the role attached.
func (r *Resolver) EnsurePermissionBinding(ctx context.Context) (*Binding, error) {
	b := &Binding{RoleName: naming.RoleName, ProfileName: naming.InstanceProfileName}

	roleCreated, err := r.ensureRole(ctx)
	if err != nil {
		return nil, err
	}

	arn, profileChanged, err := r.ensureInstanceProfile(ctx)
	if err != nil {
		return nil, err
	}
	b.ProfileARN = arn
	b.Created = roleCreated || profileChanged

	if b.Created {
		if err := r.settle(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (r *Resolver) ensureRole(ctx context.Context) (bool, error) {
	out, err := r.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: awsv2.String(naming.RoleName)})
	if err == nil {
		provisioning.LogResourceExists(r.observer, phase, "iam-role", naming.RoleName, awsv2.ToString(out.Role.Arn))
		return false, nil
	}
	if !aws.IsNotFound(err) {
		return false, aws.NewAPIError("IAM", "GetRole", err)
	}

	provisioning.LogResourceCreating(r.observer, phase, "iam-role", naming.RoleName)
	created, err := r.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 awsv2.String(naming.RoleName),
		AssumeRolePolicyDocument: awsv2.String(TrustPolicy()),
		Description:              awsv2.String("Role for ec2-cli managed instances"),
		Tags:                     aws.IAMManagedTags(),
	})
	switch {
	case aws.IsAlreadyExists(err):
		// Another invocation won the race; its policy is already in place.
		provisioning.LogResourceExists(r.observer, phase, "iam-role", naming.RoleName, "")
		return false, nil
	case err != nil:
		return false, aws.NewAPIError("IAM", "CreateRole", err)
	}
	r.metrics.RecordBindingCreated("role")

	if _, err := r.iam.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       awsv2.String(naming.RoleName),
		PolicyName:     awsv2.String(naming.InlinePolicyName),
		PolicyDocument: awsv2.String(AgentPolicy()),
	}); err != nil {
		return false, aws.NewAPIError("IAM", "PutRolePolicy", err)
	}

	arn := ""
	if created != nil && created.Role != nil {
		arn = awsv2.ToString(created.Role.Arn)
	}
	provisioning.LogResourceCreated(r.observer, phase, "iam-role", naming.RoleName, arn)
	return true, nil
}

// ensureInstanceProfile returns the profile ARN and whether this call
// created the profile or attached the role to it.
func (r *Resolver) ensureInstanceProfile(ctx context.Context) (string, bool, error) {
	out, err := r.iam.GetInstanceProfile(ctx, &iam.GetInstanceProfileInput{
		InstanceProfileName: awsv2.String(naming.InstanceProfileName),
	})
	if err == nil {
		return r.reuseInstanceProfile(ctx, out)
	}
	if !aws.IsNotFound(err) {
		return "", false, aws.NewAPIError("IAM", "GetInstanceProfile", err)
	}

	provisioning.LogResourceCreating(r.observer, phase, "iam-instance-profile", naming.InstanceProfileName)
	created, err := r.iam.CreateInstanceProfile(ctx, &iam.CreateInstanceProfileInput{
		InstanceProfileName: awsv2.String(naming.InstanceProfileName),
		Tags:                aws.IAMManagedTags(),
	})
	if aws.IsAlreadyExists(err) {
		existing, getErr := r.iam.GetInstanceProfile(ctx, &iam.GetInstanceProfileInput{
			InstanceProfileName: awsv2.String(naming.InstanceProfileName),
		})
		if getErr != nil {
			return "", false, aws.NewAPIError("IAM", "GetInstanceProfile", getErr)
		}
		return r.reuseInstanceProfile(ctx, existing)
	}
	if err != nil {
		return "", false, aws.NewAPIError("IAM", "CreateInstanceProfile", err)
	}
	r.metrics.RecordBindingCreated("instance-profile")

	if err := r.attachRole(ctx); err != nil {
		return "", false, err
	}

	arn := awsv2.ToString(created.InstanceProfile.Arn)
	provisioning.LogResourceCreated(r.observer, phase, "iam-instance-profile", naming.InstanceProfileName, arn)
	return arn, true, nil
}

// reuseInstanceProfile accepts an existing profile, attaching the role when
// the run that created it died before doing so.
func (r *Resolver) reuseInstanceProfile(ctx context.Context, out *iam.GetInstanceProfileOutput) (string, bool, error) {
	arn := awsv2.ToString(out.InstanceProfile.Arn)
	if len(out.InstanceProfile.Roles) > 0 {
		provisioning.LogResourceExists(r.observer, phase, "iam-instance-profile", naming.InstanceProfileName, arn)
		return arn, false, nil
	}
	if err := r.attachRole(ctx); err != nil {
		return "", false, err
	}
	return arn, true, nil
}

func (r *Resolver) attachRole(ctx context.Context) error {
	_, err := r.iam.AddRoleToInstanceProfile(ctx, &iam.AddRoleToInstanceProfileInput{
		InstanceProfileName: awsv2.String(naming.InstanceProfileName),
		RoleName:            awsv2.String(naming.RoleName),
	})
	if err != nil {
		return aws.NewAPIError("IAM", "AddRoleToInstanceProfile", err)
	}
	return nil
}

// settle polls the new profile until IAM lists its role, bounded by the
// settle timeout. The launcher still retries if EC2 lags behind IAM.
func (r *Resolver) settle(ctx context.Context) error {
	r.observer.Printf("Waiting for instance profile %s to propagate...", naming.InstanceProfileName)

	err := retry.WithExponentialBackoff(ctx, func() error {
		out, err := r.iam.GetInstanceProfile(ctx, &iam.GetInstanceProfileInput{
			InstanceProfileName: awsv2.String(naming.InstanceProfileName),
		})
		if err != nil {
			if aws.IsNotFound(err) {
				return err
			}
			return retry.Fatal(aws.NewAPIError("IAM", "GetInstanceProfile", err))
		}
		for _, role := range out.InstanceProfile.Roles {
			if awsv2.ToString(role.RoleName) == naming.RoleName {
				return nil
			}
		}
		return errRoleNotAttached
	},
		retry.WithMaxRetries(1000),
		retry.WithInitialDelay(r.settleInitialDelay),
		retry.WithMaxDelay(10*r.settleInitialDelay),
		retry.WithMaxElapsed(r.settleTimeout),
		retry.WithBackoffClock(r.clock),
	)
	if err == nil {
		return nil
	}
	var fatal *retry.FatalError
	if errors.As(err, &fatal) {
		return fatal.Err
	}
	if ctx.Err() != nil {
		return err
	}
	return &ResolutionError{
		Kind:    KindBindingNotReady,
		Message: fmt.Sprintf("instance profile %s not ready after %v", naming.InstanceProfileName, r.settleTimeout),
		Err:     err,
	}
}
