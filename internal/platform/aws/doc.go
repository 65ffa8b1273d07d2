// Package aws wraps the AWS SDK for the handful of EC2, IAM, SSM and STS
// operations ec2-cli needs.
//
// Every service dependency is expressed as a narrow capability interface
// (NetworkAPI, InstanceAPI, IAMAPI, AgentAPI, ParameterAPI, IdentityAPI) that
// the SDK v2 clients satisfy directly, so provisioning code can be exercised
// against scripted fakes. [Establish] builds a verified [Session]; no client
// is handed out until STS has confirmed the caller identity.
//
// Error classification (IsNotFound, IsAlreadyExists, IsProfileNotVisible)
// works on smithy API error codes so it is independent of the concrete
// exception types each service generates.
package aws
