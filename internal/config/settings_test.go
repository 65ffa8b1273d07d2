package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTagKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple", "Username", false},
		{"dashes and digits", "my-tag-123", false},
		{"exactly 128", strings.Repeat("k", 128), false},
		{"empty", "", true},
		{"too long", strings.Repeat("k", 129), true},
		{"reserved prefix", "aws:reserved", true},
		{"newline", "tag\nkey", true},
		{"non ascii", "clé", true},
		{"tab", "a\tb", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateTagKey(tt.key)
			if tt.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTagValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty allowed", "", false},
		{"spaces", "value with spaces", false},
		{"exactly 256", strings.Repeat("v", 256), false},
		{"too long", strings.Repeat("v", 257), true},
		{"newlines", "value\nwith\nnewlines", true},
		{"del char", "abc\x7f", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateTagValue(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettings_SetAndRemoveTag(t *testing.T) {
	t.Parallel()
	s := &Settings{}

	require.NoError(t, s.SetTag("Username", "testuser"))
	assert.Equal(t, "testuser", s.Tags["Username"])
	assert.True(t, s.HasUsernameTag())

	require.Error(t, s.SetTag("aws:name", "x"))
	assert.NotContains(t, s.Tags, "aws:name")

	v, ok := s.RemoveTag("Username")
	assert.True(t, ok)
	assert.Equal(t, "testuser", v)
	assert.False(t, s.HasUsernameTag())

	_, ok = s.RemoveTag("Missing")
	assert.False(t, ok)
}

func TestSettings_SortedTagKeys(t *testing.T) {
	t.Parallel()
	s := &Settings{Tags: map[string]string{"b": "2", "a": "1", "c": "3"}}
	assert.Equal(t, []string{"a", "b", "c"}, s.SortedTagKeys())
}

func TestLoadSettings_MissingFile(t *testing.T) {
	t.Parallel()
	s, err := LoadSettings(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Region)
	assert.NotNil(t, s.Tags)
}

func TestLoadSettings_Corrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadSettings(path)
	assert.ErrorContains(t, err, "failed to parse settings file")
}

func TestSettings_SaveRoundTripAndPermissions(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	s := &Settings{
		Region:   "eu-west-1",
		VpcID:    "vpc-1",
		SubnetID: "subnet-1",
		Tags:     map[string]string{"Username": "alice"},
	}

	require.NoError(t, s.Save(path))

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestSettings_SaveTightensExistingPermissions(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	require.NoError(t, (&Settings{}).Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, (&Settings{Tags: map[string]string{"Team": ""}}).Validate())
	assert.Error(t, (&Settings{Tags: map[string]string{"aws:x": "y"}}).Validate())
}
