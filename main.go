package main

import (
	"os"

	"github.com/harrisonrobin/taskpilot/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
