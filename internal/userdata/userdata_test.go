package userdata

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/ec2-cli/internal/profile"
)

func TestGenerate_DefaultProfile(t *testing.T) {
	t.Parallel()
	script, err := Generate(profile.Default(), "test-project")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\nset -ex\n"))
	assert.Contains(t, script, "dnf install -y git gcc make openssl-devel")
	assert.Contains(t, script, "sh.rustup.rs | sh -s -- -y\n")
	assert.NotContains(t, script, "--default-toolchain")
	assert.Contains(t, script, "rustup component add clippy rustfmt")
	assert.Contains(t, script, "git init --bare /home/ec2-user/repos/test-project.git")
	assert.Contains(t, script, "GIT_WORK_TREE=/home/ec2-user/work/test-project git checkout -f")
	assert.True(t, strings.HasSuffix(script, "touch /home/ec2-user/.ec2-cli-ready\n"))
}

func TestGenerate_WithoutProject(t *testing.T) {
	t.Parallel()
	script, err := Generate(profile.Default(), "")

	require.NoError(t, err)
	assert.Contains(t, script, "#!/bin/bash")
	assert.NotContains(t, script, "git init --bare")
	assert.Contains(t, script, "mkdir -p /home/ec2-user/repos")
}

func TestGenerate_CustomProfile(t *testing.T) {
	t.Parallel()
	p := profile.Default()
	p.Instance.AMI.Family = profile.ImageUbuntu2404
	p.Packages.System = nil
	p.Packages.Rust.Channel = "nightly"
	p.Packages.Rust.Components = nil
	p.Packages.Cargo = []string{"ripgrep", "cargo-watch"}
	p.Environment = map[string]string{"RUST_LOG": "debug", "EDITOR": "vim"}

	script, err := Generate(p, "")

	require.NoError(t, err)
	assert.NotContains(t, script, "Installing system packages")
	assert.Contains(t, script, "su - ubuntu -c '")
	assert.Contains(t, script, "--default-toolchain nightly")
	assert.NotContains(t, script, "rustup component add")
	assert.Contains(t, script, "cargo install ripgrep\ncargo install cargo-watch\n")
	assert.Contains(t, script, "cat >> /home/ubuntu/.bashrc << 'ENVEOF'\nexport EDITOR=\"vim\"\nexport RUST_LOG=\"debug\"\nENVEOF")
}

func TestGenerate_RustDisabled(t *testing.T) {
	t.Parallel()
	p := profile.Default()
	p.Packages.Rust.Enabled = false

	script, err := Generate(p, "proj")

	require.NoError(t, err)
	assert.NotContains(t, script, "rustup")
	assert.NotContains(t, script, "cargo")
}

func TestGenerate_RejectsUnsafeProject(t *testing.T) {
	t.Parallel()
	_, err := Generate(profile.Default(), "proj; rm -rf /")
	assert.ErrorContains(t, err, "invalid project name")
}

func TestEncode(t *testing.T) {
	t.Parallel()
	encoded := Encode("#!/bin/bash\necho hi\n")

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\necho hi\n", string(decoded))
}

func TestProjectName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"/home/alice/ec2-cli":     "ec2-cli",
		"/home/alice/My Project":  "My-Project",
		"/home/alice/app.v2/":     "app.v2",
		"/":                       "",
		"/home/alice/'quoted'":    "quoted",
		"/home/alice/.hidden-dir": "hidden-dir",
	}
	for dir, want := range tests {
		assert.Equal(t, want, ProjectName(dir), dir)
	}
}
