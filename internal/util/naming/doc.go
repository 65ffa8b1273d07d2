// Package naming provides consistent names for ec2-cli resources.
//
// IAM resources use fixed, well-known names so that at most one permission
// binding exists per account. Instances are addressed by an operator-chosen
// name; when none is given an adjective-noun pair is generated.
package naming
