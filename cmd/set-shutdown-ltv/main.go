package main

import (
	"os"

	"github.com/trebuchet-org/proxyops/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.Standalone(cli.NewSetShutdownLTVCmd())))
}
