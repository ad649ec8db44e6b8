// Package version provides the current version of the server build.
package version

import "fmt"

// Version is the semver of the current build.
var Version = "0.3.1"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return fmt.Sprintf("%s-%s", Version, mode)
	}
	return Version
}
