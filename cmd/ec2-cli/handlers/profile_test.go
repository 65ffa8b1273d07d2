package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/profile"
)

func writeProfile(t *testing.T, dir, name, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestProfileList(t *testing.T) {
	env := setupHandlers(t)
	writeProfile(t, filepath.Join(env.workDir, config.LocalDirName, "profiles"), "local-box", "instance:\n  type: t3.small\n")
	writeProfile(t, config.GlobalProfileDir(), "global-box", "instance:\n  type: t3.small\n")

	require.NoError(t, ProfileList(OutputJSON))

	var infos []profile.Info
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &infos))
	require.Len(t, infos, 3)
	assert.Equal(t, profile.DefaultName, infos[0].Name)
	assert.Equal(t, profile.SourceBuiltIn, infos[0].Source)
	assert.Equal(t, "global-box", infos[1].Name)
	assert.Equal(t, profile.SourceGlobal, infos[1].Source)
	assert.Equal(t, "local-box", infos[2].Name)
	assert.Equal(t, profile.SourceLocal, infos[2].Source)

	env.out.Reset()
	require.NoError(t, ProfileList(OutputTable))
	assert.Contains(t, env.out.String(), "SOURCE")
}

func TestProfileShow(t *testing.T) {
	env := setupHandlers(t)

	require.NoError(t, ProfileShow(""))
	out := env.out.String()
	assert.Contains(t, out, string(profile.SourceBuiltIn))
	assert.Contains(t, out, "t3.large")

	env.out.Reset()
	path := writeProfile(t, filepath.Join(env.workDir, config.LocalDirName, "profiles"), "small", "name: small\ninstance:\n  type: t3.small\n")
	require.NoError(t, ProfileShow("small"))
	assert.Contains(t, env.out.String(), path)
	assert.Contains(t, env.out.String(), "size_gb: 30")
}

func TestProfileValidate(t *testing.T) {
	env := setupHandlers(t)
	dir := filepath.Join(env.workDir, config.LocalDirName, "profiles")
	writeProfile(t, dir, "good", "name: good\ninstance:\n  type: c7g.xlarge\n")
	bad := writeProfile(t, t.TempDir(), "bad", "name: bad\ninstance:\n  type: t3.small\n  storage:\n    root_volume:\n      size_gb: 4\n")

	require.NoError(t, ProfileValidate("good"))
	assert.Contains(t, env.out.String(), "Profile good is valid")

	err := ProfileValidate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root volume size")

	var nf *profile.NotFoundError
	assert.ErrorAs(t, ProfileValidate("nope"), &nf)
}
