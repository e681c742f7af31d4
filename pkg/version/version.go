package version

// Version holds the flopen version. It is overridden at build time via
// -ldflags for release builds.
var Version = "0.1.0"
