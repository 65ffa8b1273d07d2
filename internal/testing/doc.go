// Package testing provides test utilities, builders, and fixtures for unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - AccountFixture: an in-memory AWS account behind the platform/aws mocks
//   - FakeClock: a clock that advances only when slept on
//   - RecordingObserver: a provisioning.Observer that records events
//   - SettingsBuilder: fluent builder for operator settings
//
// Usage:
//
//	account := testing.NewAccountFixture()
//	sess := account.Session()
//	settings := testing.NewSettingsBuilder().WithSubnet(account.DefaultSubnetID).Build()
package testing
