package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, file, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	root := t.TempDir()
	return &Loader{
		LocalDir:  filepath.Join(root, "local"),
		GlobalDir: filepath.Join(root, "global"),
	}
}

const gravitonProfile = `
name: graviton
instance:
  type: t4g.xlarge
  storage:
    root_volume:
      size_gb: 50
      type: gp3
      throughput: 250
packages:
  system: [git, clang]
  rust:
    enabled: true
  cargo: [ripgrep]
environment:
  RUST_LOG: debug
`

func TestLoader_Load_BuiltInDefault(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)

	p, err := l.Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoader_Load_GlobalWithDefaults(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)
	writeProfile(t, l.GlobalDir, "graviton.yaml", gravitonProfile)

	p, err := l.Load("graviton")

	require.NoError(t, err)
	assert.Equal(t, "t4g.xlarge", p.Instance.Type)
	assert.Equal(t, ImageAmazonLinux2023, p.Instance.AMI.Family)
	assert.Equal(t, ArchARM64, p.Instance.AMI.Architecture)
	assert.Equal(t, "stable", p.Packages.Rust.Channel)
	assert.Equal(t, int32(250), p.Instance.Storage.RootVolume.Throughput)
	assert.Equal(t, "debug", p.Environment["RUST_LOG"])
}

func TestLoader_Load_LocalShadowsGlobal(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)
	writeProfile(t, l.GlobalDir, "dev.yaml", "instance:\n  type: t3.small\n")
	writeProfile(t, l.LocalDir, "dev.yml", "instance:\n  type: c6i.large\n")

	p, err := l.Load("dev")

	require.NoError(t, err)
	assert.Equal(t, "dev", p.Name, "name defaults to the file name")
	assert.Equal(t, "c6i.large", p.Instance.Type)

	path, source, err := l.Path("dev")
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, source)
	assert.Equal(t, filepath.Join(l.LocalDir, "dev.yml"), path)
}

func TestLoader_Load_FileShadowsBuiltInDefault(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)
	writeProfile(t, l.LocalDir, "default.yaml", "instance:\n  type: m7i.large\n")

	p, err := l.Load(DefaultName)

	require.NoError(t, err)
	assert.Equal(t, "m7i.large", p.Instance.Type)
}

func TestLoader_Load_NotFound(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)

	_, err := l.Load("missing")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Name)
	assert.Equal(t, []string{l.LocalDir, l.GlobalDir}, nf.Searched)
}

func TestLoader_Load_RejectsPathNames(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)

	_, err := l.Load("../etc/passwd")
	assert.ErrorContains(t, err, "invalid profile name")
}

func TestLoader_Load_UnknownField(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)
	writeProfile(t, l.GlobalDir, "typo.yaml", "instance:\n  typ: t3.small\n")

	_, err := l.Load("typo")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "typ")
}

func TestLoader_Load_Invalid(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)
	writeProfile(t, l.GlobalDir, "bad.yaml", "instance:\n  type: t3.small\n  storage:\n    root_volume:\n      size_gb: 2\n")

	_, err := l.Load("bad")

	assert.ErrorContains(t, err, "profile validation failed")
}

func TestLoader_List(t *testing.T) {
	t.Parallel()
	l := newTestLoader(t)
	writeProfile(t, l.GlobalDir, "dev.yaml", "instance:\n  type: t3.small\n")
	writeProfile(t, l.GlobalDir, "gpu.yaml", "instance:\n  type: g5.xlarge\n")
	writeProfile(t, l.LocalDir, "dev.yaml", "instance:\n  type: c6i.large\n")
	writeProfile(t, l.LocalDir, "README.md", "not a profile")

	infos, err := l.List()

	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, Info{Name: "default", Source: SourceBuiltIn}, infos[0])
	assert.Equal(t, "dev", infos[1].Name)
	assert.Equal(t, SourceLocal, infos[1].Source)
	assert.Equal(t, "gpu", infos[2].Name)
	assert.Equal(t, SourceGlobal, infos[2].Source)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	p, err := Parse(nil)

	require.NoError(t, err)
	assert.Equal(t, "gp3", p.Instance.Storage.RootVolume.Type)
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()
	data, err := Marshal(Default())
	require.NoError(t, err)

	p, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}
