package version

const (
	// Version represents the current version of mockgrid
	Version = "1.0.0"

	// BuildDate will be set during build
	BuildDate = "2026-08-31"

	// GitCommit will be set during build
	GitCommit = ""

	// AppName is the application name
	AppName = "mockgrid"

	// AppDescription is the application description
	AppDescription = "In-memory distributed deployment harness"
)

// GetVersionInfo returns formatted version information
func GetVersionInfo() map[string]string {
	return map[string]string{
		"name":        AppName,
		"version":     Version,
		"description": AppDescription,
		"build_date":  BuildDate,
		"git_commit":  GitCommit,
	}
}
