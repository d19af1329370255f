package version

// Build information set by ldflags
var (
	Version = "dev"     // Set by goreleaser: -X github.com/RD2153874/flowsource/internal/version.Version={{.Version}}
	Commit  = "unknown" // Set by goreleaser: -X github.com/RD2153874/flowsource/internal/version.Commit={{.Commit}}
	Date    = "unknown" // Set by goreleaser: -X github.com/RD2153874/flowsource/internal/version.Date={{.Date}}
)
