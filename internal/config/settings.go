package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxTagKeyLength   = 128
	maxTagValueLength = 256
	reservedTagPrefix = "aws:"

	// UsernameTagKey identifies who launched an instance.
	UsernameTagKey = "Username"
)

// Settings is the operator settings document.
type Settings struct {
	// Region pins the AWS region instead of the SDK's default chain.
	Region string `json:"region,omitempty"`
	// VpcID overrides the account's default VPC.
	VpcID string `json:"vpc_id,omitempty"`
	// SubnetID is required for launching; there is no default subnet.
	SubnetID string `json:"subnet_id,omitempty"`
	// Tags are merged into the tag set of every launched instance.
	Tags map[string]string `json:"tags,omitempty"`
	// AllowTagOverride lets custom tags replace the standard ec2-cli tags.
	AllowTagOverride bool `json:"allow_tag_override,omitempty"`
}

// ValidationError reports an invalid setting.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// LoadSettings reads the settings document at path. A missing file yields
// empty settings.
func LoadSettings(path string) (*Settings, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{Tags: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if s.Tags == nil {
		s.Tags = map[string]string{}
	}
	return &s, nil
}

// Load reads the settings document from its default location.
func Load() (*Settings, error) {
	return LoadSettings(SettingsPath())
}

// Save writes the settings document to path with owner-only permissions.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	// #nosec G304
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open settings file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	// OpenFile leaves the mode of an existing file untouched.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict settings file permissions: %w", err)
	}
	return nil
}

// SetTag validates and stores a custom tag.
func (s *Settings) SetTag(key, value string) error {
	if err := ValidateTagKey(key); err != nil {
		return err
	}
	if err := ValidateTagValue(value); err != nil {
		return err
	}
	if s.Tags == nil {
		s.Tags = map[string]string{}
	}
	s.Tags[key] = value
	return nil
}

// RemoveTag deletes a custom tag and reports whether it existed.
func (s *Settings) RemoveTag(key string) (string, bool) {
	v, ok := s.Tags[key]
	if ok {
		delete(s.Tags, key)
	}
	return v, ok
}

// HasUsernameTag reports whether the Username tag is configured.
func (s *Settings) HasUsernameTag() bool {
	_, ok := s.Tags[UsernameTagKey]
	return ok
}

// SortedTagKeys returns the custom tag keys in lexical order.
func (s *Settings) SortedTagKeys() []string {
	keys := make([]string, 0, len(s.Tags))
	for k := range s.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks every custom tag.
func (s *Settings) Validate() error {
	for _, k := range s.SortedTagKeys() {
		if err := ValidateTagKey(k); err != nil {
			return err
		}
		if err := ValidateTagValue(s.Tags[k]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTagKey enforces the EC2 tag key rules.
func ValidateTagKey(key string) error {
	switch {
	case key == "":
		return &ValidationError{Field: "tag key", Reason: "cannot be empty"}
	case len(key) > maxTagKeyLength:
		return &ValidationError{Field: "tag key", Value: key, Reason: fmt.Sprintf("cannot exceed %d characters", maxTagKeyLength)}
	case strings.HasPrefix(key, reservedTagPrefix):
		return &ValidationError{Field: "tag key", Value: key, Reason: fmt.Sprintf("cannot start with %q (reserved prefix)", reservedTagPrefix)}
	case !isPrintableASCII(key):
		return &ValidationError{Field: "tag key", Value: key, Reason: "must contain only printable ASCII characters"}
	}
	return nil
}

// ValidateTagValue enforces the EC2 tag value rules. Empty values are allowed.
func ValidateTagValue(value string) error {
	switch {
	case len(value) > maxTagValueLength:
		return &ValidationError{Field: "tag value", Reason: fmt.Sprintf("cannot exceed %d characters", maxTagValueLength)}
	case !isPrintableASCII(value):
		return &ValidationError{Field: "tag value", Value: value, Reason: "must contain only printable ASCII characters"}
	}
	return nil
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}
