package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Session is a verified connection to one AWS account and region.
// It is built once per invocation and never persisted.
type Session struct {
	Region    string
	AccountID string
	CallerARN string

	EC2 EC2API
	IAM IAMAPI
	SSM SSMAPI
}

// EstablishOptions pins how credentials and region are resolved.
type EstablishOptions struct {
	// Region overrides the region from the SDK default chain.
	Region string
	// Profile selects a named profile from the shared AWS config files.
	Profile string
}

// LoadConfig resolves ambient credentials and region through the SDK default
// chain (environment, shared config, SSO, IMDS).
func LoadConfig(ctx context.Context, opts EstablishOptions) (awsv2.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	return awsconfig.LoadDefaultConfig(ctx, loadOpts...)
}

// Establish loads credentials and verifies them with STS before returning a
// Session. Credential failures are reported immediately without retrying.
func Establish(ctx context.Context, opts EstablishOptions) (*Session, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, &AuthError{Region: opts.Region, Reason: "failed to load AWS configuration", Err: err}
	}

	identity := sts.NewFromConfig(cfg, func(o *sts.Options) {
		o.RetryMaxAttempts = 1
	})
	return NewSession(ctx, cfg, identity)
}

// NewSession verifies the caller identity for cfg and builds the service
// clients. The identity client is injected so tests can script STS.
func NewSession(ctx context.Context, cfg awsv2.Config, identity IdentityAPI) (*Session, error) {
	if cfg.Region == "" {
		return nil, &AuthError{Reason: "no AWS region configured; set AWS_REGION or configure a region"}
	}

	out, err := identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, &AuthError{Region: cfg.Region, Reason: "credential verification failed", Err: err}
	}
	account := awsv2.ToString(out.Account)
	if account == "" {
		return nil, &AuthError{Region: cfg.Region, Reason: "caller identity returned no account"}
	}

	return &Session{
		Region:    cfg.Region,
		AccountID: account,
		CallerARN: awsv2.ToString(out.Arn),
		EC2:       ec2.NewFromConfig(cfg),
		IAM:       iam.NewFromConfig(cfg),
		SSM:       ssm.NewFromConfig(cfg),
	}, nil
}

// String describes the session for log output.
func (s *Session) String() string {
	return fmt.Sprintf("account %s in %s", s.AccountID, s.Region)
}
