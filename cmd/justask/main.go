// Command justask answers questions about Iowa liquor sales.
package main

import (
	"os"

	"github.com/just-ask-ai/justask/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBuilder(build)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
