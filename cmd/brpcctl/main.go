// Command brpcctl is the brpc client CLI: initialize configuration, check
// whether a brpcd is reachable, and issue ad-hoc calls against it.
package main

import (
	"os"

	"github.com/marmos91/brpc/cmd/brpcctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("%v", err)
		os.Exit(1)
	}
}
