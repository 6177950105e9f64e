package version

// Set at build time via -ldflags "-X hypedeploy/version.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	Arch    = "unknown"
	OS      = "unknown"
)
