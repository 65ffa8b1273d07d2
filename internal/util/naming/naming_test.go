package naming

import (
	"strings"
	"testing"
)

func TestNamingFunctions(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "RoleName",
			got:      RoleName,
			expected: "ec2-cli-instance-role",
		},
		{
			name:     "InstanceProfileName",
			got:      InstanceProfileName,
			expected: "ec2-cli-instance-profile",
		},
		{
			name:     "InlinePolicyName",
			got:      InlinePolicyName,
			expected: "ec2-cli-ssm-policy",
		},
		{
			name:     "DisplayName",
			got:      DisplayName("alpha"),
			expected: "ec2-cli-alpha",
		},
		{
			name:     "ClientToken",
			got:      ClientToken("alpha", "abc"),
			expected: "ec2-cli-alpha-abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestClientToken_Truncated(t *testing.T) {
	token := ClientToken(strings.Repeat("a", 60), "0123456789")
	if len(token) != 64 {
		t.Errorf("ClientToken length = %d, want 64", len(token))
	}
	if !strings.HasSuffix(token, "-0123456789") {
		t.Errorf("ClientToken() = %q, want nonce suffix", token)
	}
}

func TestClientToken_KeepsFullNonce(t *testing.T) {
	first := "0f8fad5b-d9cb-469f-a165-70867728950e"
	second := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	for _, length := range []int{1, 19, 20, 40, 55, 56, 63} {
		name := strings.Repeat("a", length)
		a := ClientToken(name, first)
		b := ClientToken(name, second)

		if a == b {
			t.Errorf("ClientToken(%d-char name) returned %q for two different nonces", length, a)
		}
		if !strings.HasSuffix(a, "-"+first) {
			t.Errorf("ClientToken(%d-char name) = %q, want suffix %q", length, a, first)
		}
		if len(a) > 64 {
			t.Errorf("ClientToken(%d-char name) length = %d, want <= 64", length, len(a))
		}
		if !strings.HasPrefix(a, "ec2-cli-a") {
			t.Errorf("ClientToken(%d-char name) = %q, want ec2-cli- prefix and part of the name", length, a)
		}
	}
}

func TestValidateInstanceName(t *testing.T) {
	valid := []string{"alpha", "brave-otter", "dev1", "9lives"}
	for _, name := range valid {
		if err := ValidateInstanceName(name); err != nil {
			t.Errorf("ValidateInstanceName(%q) unexpected error: %v", name, err)
		}
	}

	invalid := []string{"", "-leading", "Upper", "with space", "under_score", strings.Repeat("a", 64)}
	for _, name := range invalid {
		if err := ValidateInstanceName(name); err == nil {
			t.Errorf("ValidateInstanceName(%q) expected error", name)
		}
	}
}

func TestGenerateInstanceName(t *testing.T) {
	for i := 0; i < 50; i++ {
		name := GenerateInstanceName()
		parts := strings.Split(name, "-")
		if len(parts) != 2 {
			t.Fatalf("GenerateInstanceName() = %q, want adjective-name", name)
		}
		if err := ValidateInstanceName(name); err != nil {
			t.Fatalf("generated name %q is invalid: %v", name, err)
		}
	}
}
