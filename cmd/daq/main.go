// Package main is the daq command itself.
package main

import (
	"log"
	"os"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
