// Package buildinfo exposes the version of the gatecam binary.
//
// Release builds inject the values via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/gatecam/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/yndnr/gatecam/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Values left unset fall back to what the Go toolchain embedded in the
// binary.
package buildinfo
