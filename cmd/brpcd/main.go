// Command brpcd runs the brpc server daemon: it loads configuration, wires
// up logging, tracing, and metrics, registers the bundled example services,
// and serves the TCP and (optionally) HTTP carriers until signalled to stop.
package main

import (
	"os"

	"github.com/marmos91/brpc/cmd/brpcd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("%v", err)
		os.Exit(1)
	}
}
