package version

// Version is the current version of Nexus.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/akashsiripuram/Nexus/internal/version.Version=v1.0.0'"
var Version = "dev"
