package version

// Overridable at build time via -ldflags "-X ...".
var (
	AppName        = "Server Ops"
	AppDescription = "Operations bot with a rate-limit-aware command engine"
	BuildDate      = "unknown"
)
