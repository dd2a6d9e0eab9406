// Package testing contains site fixtures and output assertions shared by the
// build and command tests.
package testing

const (
	testDirPermissions  = 0o750
	testFilePermissions = 0o600
)
