// Package profile defines instance profiles: the declarative description of
// an instance's shape, image, packages and environment.
//
// Profiles are YAML documents named <name>.yaml. They are looked up in the
// project directory (./.ec2-cli/profiles) first and then in the user's
// configuration directory. A built-in "default" profile is always available
// unless a file of the same name shadows it.
package profile
