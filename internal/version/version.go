package version

import "fmt"

// Version is the service version, overridable at build time with
// -ldflags "-X github.com/adsight/adsight/internal/version.Version=...".
var Version = "0.4.0"

// DevVersion is the suffix appended in non-prod modes.
var DevVersion = "dev"

func GetCurrentVersion(mode string) string {
	if mode == "prod" {
		return Version
	}
	return fmt.Sprintf("%s-%s", Version, DevVersion)
}
