//go:build windows

package helper

// installerArgs requests a silent install from NSIS/Inno style setup
// executables.
func installerArgs() []string { return []string{"/S"} }
