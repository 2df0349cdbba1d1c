// tp2-backend CLI - users API server with Prometheus metrics
package main

import (
	"github.com/cap-mahdi/TP2-devops/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate

	cli.Execute()
}
