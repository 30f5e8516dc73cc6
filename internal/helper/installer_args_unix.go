//go:build !windows

package helper

// installerArgs returns no flags: installer executables only occur on
// Windows, this keeps the package compiling everywhere.
func installerArgs() []string { return nil }
