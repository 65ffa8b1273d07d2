package profile

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultName is the name of the built-in profile.
const DefaultName = "default"

// Image families resolvable through SSM public parameters.
const (
	ImageAmazonLinux2023 = "al2023"
	ImageUbuntu2404      = "ubuntu-24.04"
)

// Architectures.
const (
	ArchX86_64 = "x86_64"
	ArchARM64  = "arm64"
)

// Profile describes how an instance is launched and bootstrapped.
type Profile struct {
	Name        string            `yaml:"name"`
	Instance    InstanceConfig    `yaml:"instance"`
	Packages    PackageConfig     `yaml:"packages"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// InstanceConfig is the instance shape.
type InstanceConfig struct {
	Type    string        `yaml:"type"`
	AMI     AMIConfig     `yaml:"ami"`
	Storage StorageConfig `yaml:"storage"`
}

// AMIConfig selects the machine image. ID wins over Family when both are set.
type AMIConfig struct {
	ID           string `yaml:"id,omitempty"`
	Family       string `yaml:"family,omitempty"`
	Architecture string `yaml:"architecture,omitempty"`
}

// StorageConfig describes attached storage.
type StorageConfig struct {
	RootVolume RootVolumeConfig `yaml:"root_volume"`
}

// RootVolumeConfig is the EBS root volume.
type RootVolumeConfig struct {
	SizeGB     int32  `yaml:"size_gb"`
	Type       string `yaml:"type"`
	IOPS       int32  `yaml:"iops,omitempty"`
	Throughput int32  `yaml:"throughput,omitempty"`
}

// PackageConfig lists software installed at boot.
type PackageConfig struct {
	System []string   `yaml:"system,omitempty"`
	Rust   RustConfig `yaml:"rust"`
	Cargo  []string   `yaml:"cargo,omitempty"`
}

// RustConfig controls the rustup toolchain install.
type RustConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Channel    string   `yaml:"channel,omitempty"`
	Components []string `yaml:"components,omitempty"`
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Name: DefaultName,
		Instance: InstanceConfig{
			Type: "t3.large",
			AMI: AMIConfig{
				Family:       ImageAmazonLinux2023,
				Architecture: ArchX86_64,
			},
			Storage: StorageConfig{
				RootVolume: RootVolumeConfig{SizeGB: 30, Type: "gp3"},
			},
		},
		Packages: PackageConfig{
			System: []string{"git", "gcc", "make", "openssl-devel"},
			Rust: RustConfig{
				Enabled:    true,
				Channel:    "stable",
				Components: []string{"clippy", "rustfmt"},
			},
		},
		Environment: map[string]string{},
	}
}

// applyDefaults fills fields a profile file may omit.
func (p *Profile) applyDefaults() {
	if p.Instance.AMI.ID == "" && p.Instance.AMI.Family == "" {
		p.Instance.AMI.Family = ImageAmazonLinux2023
	}
	if p.Instance.AMI.Architecture == "" {
		p.Instance.AMI.Architecture = architectureFor(p.Instance.Type)
	}
	if p.Instance.Storage.RootVolume.SizeGB == 0 {
		p.Instance.Storage.RootVolume.SizeGB = 30
	}
	if p.Instance.Storage.RootVolume.Type == "" {
		p.Instance.Storage.RootVolume.Type = "gp3"
	}
	if p.Packages.Rust.Enabled && p.Packages.Rust.Channel == "" {
		p.Packages.Rust.Channel = "stable"
	}
	if p.Environment == nil {
		p.Environment = map[string]string{}
	}
}

// architectureFor guesses the CPU architecture from the instance family.
// Graviton families carry a "g" after the generation digit (t4g, m7g, c7gn).
func architectureFor(instanceType string) string {
	family, _, _ := strings.Cut(instanceType, ".")
	for i := 0; i < len(family)-1; i++ {
		if family[i] >= '0' && family[i] <= '9' {
			if family[i+1] == 'g' {
				return ArchARM64
			}
			break
		}
	}
	return ArchX86_64
}

// LoginUser is the default user of the profile's image.
func (p *Profile) LoginUser() string {
	if p.Instance.AMI.ID == "" && p.Instance.AMI.Family == ImageUbuntu2404 {
		return "ubuntu"
	}
	return "ec2-user"
}

var (
	instanceTypePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*\.[a-z0-9]+$`)
	envKeyPattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	packagePattern      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+@:=-]*$`)
	channelPattern      = regexp.MustCompile(`^(stable|beta|nightly(-\d{4}-\d{2}-\d{2})?|\d+\.\d+(\.\d+)?)$`)
)

var volumeTypes = map[string]bool{
	"gp2": true, "gp3": true, "io1": true, "io2": true,
	"st1": true, "sc1": true, "standard": true,
}

// Validate checks that the profile can be turned into a launch request.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if !instanceTypePattern.MatchString(p.Instance.Type) {
		return fmt.Errorf("profile %s: invalid instance type %q", p.Name, p.Instance.Type)
	}

	ami := p.Instance.AMI
	switch {
	case ami.ID != "":
		if !strings.HasPrefix(ami.ID, "ami-") {
			return fmt.Errorf("profile %s: invalid AMI id %q", p.Name, ami.ID)
		}
	case ami.Family != ImageAmazonLinux2023 && ami.Family != ImageUbuntu2404:
		return fmt.Errorf("profile %s: unsupported AMI family %q (use %s or %s)", p.Name, ami.Family, ImageAmazonLinux2023, ImageUbuntu2404)
	}
	if ami.Architecture != ArchX86_64 && ami.Architecture != ArchARM64 {
		return fmt.Errorf("profile %s: unsupported architecture %q", p.Name, ami.Architecture)
	}

	if err := p.Instance.Storage.RootVolume.validate(); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}

	for _, pkg := range p.Packages.System {
		if !packagePattern.MatchString(pkg) {
			return fmt.Errorf("profile %s: invalid system package %q", p.Name, pkg)
		}
	}
	for _, pkg := range p.Packages.Cargo {
		if !packagePattern.MatchString(pkg) {
			return fmt.Errorf("profile %s: invalid cargo package %q", p.Name, pkg)
		}
	}
	if len(p.Packages.Cargo) > 0 && !p.Packages.Rust.Enabled {
		return fmt.Errorf("profile %s: cargo packages require rust to be enabled", p.Name)
	}
	if p.Packages.Rust.Enabled {
		if !channelPattern.MatchString(p.Packages.Rust.Channel) {
			return fmt.Errorf("profile %s: invalid rust channel %q", p.Name, p.Packages.Rust.Channel)
		}
		for _, c := range p.Packages.Rust.Components {
			if !packagePattern.MatchString(c) {
				return fmt.Errorf("profile %s: invalid rust component %q", p.Name, c)
			}
		}
	}

	for k, v := range p.Environment {
		if !envKeyPattern.MatchString(k) {
			return fmt.Errorf("profile %s: invalid environment variable name %q", p.Name, k)
		}
		if strings.ContainsAny(v, "\"\\$`\n") {
			return fmt.Errorf("profile %s: environment variable %s contains characters that need shell escaping", p.Name, k)
		}
	}
	return nil
}

func (v RootVolumeConfig) validate() error {
	if !volumeTypes[v.Type] {
		return fmt.Errorf("unsupported root volume type %q", v.Type)
	}
	if v.SizeGB < 8 || v.SizeGB > 16384 {
		return fmt.Errorf("root volume size must be between 8 and 16384 GiB, got %d", v.SizeGB)
	}
	if v.IOPS != 0 && v.Type != "gp3" && v.Type != "io1" && v.Type != "io2" {
		return fmt.Errorf("iops is only supported for gp3, io1 and io2 volumes")
	}
	if (v.Type == "io1" || v.Type == "io2") && v.IOPS == 0 {
		return fmt.Errorf("%s volumes require iops", v.Type)
	}
	if v.Throughput != 0 {
		if v.Type != "gp3" {
			return fmt.Errorf("throughput is only supported for gp3 volumes")
		}
		if v.Throughput < 125 || v.Throughput > 1000 {
			return fmt.Errorf("gp3 throughput must be between 125 and 1000 MiB/s, got %d", v.Throughput)
		}
	}
	return nil
}
