// Package version exposes build metadata for the generator binaries.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// Short and Full render them for CLI output; UserAgent identifies the
// generator to the release API.
package version
