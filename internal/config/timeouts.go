package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Running           time.Duration // Wait for the instance to reach "running"
	AgentReady        time.Duration // Wait for the SSM agent to report Online
	ProfileSettle     time.Duration // Wait for a new instance profile to become usable
	Terminate         time.Duration // Wait for the instance to reach "terminated"
	PollInterval      time.Duration // Fixed interval between readiness checks
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - EC2CLI_TIMEOUT_RUNNING (default: 300s)
//   - EC2CLI_TIMEOUT_AGENT (default: 600s)
//   - EC2CLI_TIMEOUT_PROFILE_SETTLE (default: 60s)
//   - EC2CLI_TIMEOUT_TERMINATE (default: 300s)
//   - EC2CLI_POLL_INTERVAL (default: 5s)
//   - EC2CLI_RETRY_MAX_ATTEMPTS (default: 5)
//   - EC2CLI_RETRY_INITIAL_DELAY (default: 2s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Running:           parseDuration("EC2CLI_TIMEOUT_RUNNING", 300*time.Second),
		AgentReady:        parseDuration("EC2CLI_TIMEOUT_AGENT", 600*time.Second),
		ProfileSettle:     parseDuration("EC2CLI_TIMEOUT_PROFILE_SETTLE", 60*time.Second),
		Terminate:         parseDuration("EC2CLI_TIMEOUT_TERMINATE", 300*time.Second),
		PollInterval:      parseDuration("EC2CLI_POLL_INTERVAL", 5*time.Second),
		RetryMaxAttempts:  parseInt("EC2CLI_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("EC2CLI_RETRY_INITIAL_DELAY", 2*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// Non-positive or malformed values fall back to the default.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}

	return i
}
