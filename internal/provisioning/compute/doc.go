// Package compute launches the instance.
//
// A launch is a single RunInstances call carrying the image, instance type,
// subnet, instance profile, user data, root volume and tags. The request
// includes a client token so a retried call never starts a second instance.
// The only retry is for an instance profile that IAM has created but EC2
// cannot see yet; every other failure is returned as a *LaunchError and
// nothing is rolled back.
package compute
