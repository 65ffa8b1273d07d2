package naming

import (
	"fmt"
	"regexp"

	petname "github.com/dustinkirkland/golang-petname"
)

// Well-known IAM names shared by every instance in an account.
const (
	RoleName            = "ec2-cli-instance-role"
	InstanceProfileName = "ec2-cli-instance-profile"
	InlinePolicyName    = "ec2-cli-ssm-policy"
)

const (
	maxInstanceNameLength = 63

	// EC2 accepts client tokens of at most 64 ASCII characters.
	maxClientTokenLength = 64
)

var instanceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// DisplayName is the value of the console Name tag for an instance.
func DisplayName(instance string) string {
	return fmt.Sprintf("ec2-cli-%s", instance)
}

// ClientToken derives a RunInstances idempotency token for an instance.
// The nonce is always kept whole; the instance name is shortened to fit.
func ClientToken(instance, nonce string) string {
	room := maxClientTokenLength - len("ec2-cli--") - len(nonce)
	if room < 0 {
		room = 0
	}
	if len(instance) > room {
		instance = instance[:room]
	}
	token := fmt.Sprintf("ec2-cli-%s-%s", instance, nonce)
	if len(token) > maxClientTokenLength {
		token = token[len(token)-maxClientTokenLength:]
	}
	return token
}

// ValidateInstanceName checks that name is usable as a tag value and state key.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}
	if len(name) > maxInstanceNameLength {
		return fmt.Errorf("instance name %q exceeds %d characters", name, maxInstanceNameLength)
	}
	if !instanceNamePattern.MatchString(name) {
		return fmt.Errorf("instance name %q must contain only lowercase letters, digits and hyphens, and start with a letter or digit", name)
	}
	return nil
}

// GenerateInstanceName returns a random adjective-name pair such as "proud-otter".
func GenerateInstanceName() string {
	return petname.Generate(2, "-")
}
