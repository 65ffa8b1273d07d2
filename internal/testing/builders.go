package testing

import (
	"maps"

	"github.com/imamik/ec2-cli/internal/config"
)

// SettingsBuilder provides a fluent interface for constructing test settings.
// Each method returns a new builder (immutable) for chaining.
type SettingsBuilder struct {
	s config.Settings
}

// NewSettingsBuilder creates a builder with the fixture's default subnet.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		s: config.Settings{
			SubnetID: DefaultSubnetID,
			Tags:     map[string]string{},
		},
	}
}

// WithRegion sets the region.
func (b *SettingsBuilder) WithRegion(region string) *SettingsBuilder {
	nb := b.clone()
	nb.s.Region = region
	return nb
}

// WithVpc sets the VPC override.
func (b *SettingsBuilder) WithVpc(vpcID string) *SettingsBuilder {
	nb := b.clone()
	nb.s.VpcID = vpcID
	return nb
}

// WithSubnet sets the subnet.
func (b *SettingsBuilder) WithSubnet(subnetID string) *SettingsBuilder {
	nb := b.clone()
	nb.s.SubnetID = subnetID
	return nb
}

// WithTag adds a custom tag.
func (b *SettingsBuilder) WithTag(key, value string) *SettingsBuilder {
	nb := b.clone()
	nb.s.Tags[key] = value
	return nb
}

// WithTagOverride allows custom tags to replace standard tags.
func (b *SettingsBuilder) WithTagOverride() *SettingsBuilder {
	nb := b.clone()
	nb.s.AllowTagOverride = true
	return nb
}

// Build returns a copy of the settings.
func (b *SettingsBuilder) Build() *config.Settings {
	out := b.clone().s
	return &out
}

func (b *SettingsBuilder) clone() *SettingsBuilder {
	s := b.s
	s.Tags = maps.Clone(b.s.Tags)
	if s.Tags == nil {
		s.Tags = map[string]string{}
	}
	return &SettingsBuilder{s: s}
}
