// Command portalctl is a terminal client for the ARO admin portal.
package main

import "github.com/rileyhilliard/portalctl/internal/cli"

// Release builds stamp these:
//
//	go build -ldflags "-X main.version=0.3.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%F)" ./cmd/portalctl
var version, commit, date = "dev", "none", "unknown"

func main() {
	cli.SetVersionInfo(version, commit, date)
	cli.Execute()
}
