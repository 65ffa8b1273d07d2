// Package userdata renders the cloud-init bootstrap script for an instance.
//
// The script installs the profile's packages, exports its environment,
// prepares a bare git repository for the current project and finally touches
// a ready marker in the login user's home directory.
package userdata
