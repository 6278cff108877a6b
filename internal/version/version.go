package version

// Version is the current version of the interview binaries.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/arijitghosal03/Campus-Konnect-sub000/internal/version.Version=v1.0.0'"
var Version = "dev"
