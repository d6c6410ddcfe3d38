// Package version carries the vidscribe build identity.
//
// Version, Commit and BuildTime are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/vidscribe/version.Version=1.4.0 \
//	    -X github.com/kbukum/vidscribe/version.Commit=$(git rev-parse --short HEAD)" ./cmd/vidscribe
//
// Unset values fall back to the VCS stamp embedded by the Go toolchain.
package version
