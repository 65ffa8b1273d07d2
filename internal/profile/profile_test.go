package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	p := Default()

	require.NoError(t, p.Validate())
	assert.Equal(t, DefaultName, p.Name)
	assert.Equal(t, "ec2-user", p.LoginUser())
}

func TestArchitectureFor(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"t3.large":    ArchX86_64,
		"t4g.medium":  ArchARM64,
		"m7g.xlarge":  ArchARM64,
		"c7gn.large":  ArchARM64,
		"m5.large":    ArchX86_64,
		"g5.xlarge":   ArchX86_64,
		"r6gd.large":  ArchARM64,
		"c6i.2xlarge": ArchX86_64,
	}
	for instanceType, want := range tests {
		assert.Equal(t, want, architectureFor(instanceType), instanceType)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr string
	}{
		{"valid", func(_ *Profile) {}, ""},
		{"missing name", func(p *Profile) { p.Name = "" }, "name is required"},
		{"bad instance type", func(p *Profile) { p.Instance.Type = "large" }, "invalid instance type"},
		{"explicit ami", func(p *Profile) { p.Instance.AMI.ID = "ami-0123456789abcdef0" }, ""},
		{"bad ami id", func(p *Profile) { p.Instance.AMI.ID = "img-1" }, "invalid AMI id"},
		{"unknown family", func(p *Profile) { p.Instance.AMI.Family = "windows" }, "unsupported AMI family"},
		{"bad arch", func(p *Profile) { p.Instance.AMI.Architecture = "i386" }, "unsupported architecture"},
		{"small volume", func(p *Profile) { p.Instance.Storage.RootVolume.SizeGB = 4 }, "between 8 and 16384"},
		{"bad volume type", func(p *Profile) { p.Instance.Storage.RootVolume.Type = "nvme" }, "unsupported root volume type"},
		{"io2 without iops", func(p *Profile) { p.Instance.Storage.RootVolume.Type = "io2" }, "require iops"},
		{"gp2 throughput", func(p *Profile) {
			p.Instance.Storage.RootVolume.Type = "gp2"
			p.Instance.Storage.RootVolume.Throughput = 200
		}, "throughput is only supported"},
		{"gp3 throughput range", func(p *Profile) { p.Instance.Storage.RootVolume.Throughput = 2000 }, "between 125 and 1000"},
		{"cargo without rust", func(p *Profile) {
			p.Packages.Rust.Enabled = false
			p.Packages.Cargo = []string{"ripgrep"}
		}, "require rust"},
		{"bad channel", func(p *Profile) { p.Packages.Rust.Channel = "latest" }, "invalid rust channel"},
		{"pinned channel", func(p *Profile) { p.Packages.Rust.Channel = "1.82.0" }, ""},
		{"shell injection package", func(p *Profile) { p.Packages.System = []string{"git; rm -rf /"} }, "invalid system package"},
		{"bad env key", func(p *Profile) { p.Environment = map[string]string{"1BAD": "x"} }, "invalid environment variable name"},
		{"env value quote", func(p *Profile) { p.Environment = map[string]string{"GOOD": `a"b`} }, "shell escaping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Default()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoginUser_Ubuntu(t *testing.T) {
	t.Parallel()
	p := Default()
	p.Instance.AMI.Family = ImageUbuntu2404
	assert.Equal(t, "ubuntu", p.LoginUser())

	p.Instance.AMI.ID = "ami-0123"
	assert.Equal(t, "ec2-user", p.LoginUser())
}
