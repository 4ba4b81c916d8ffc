// Package main is the entry point for the vidfetch application.
package main

import (
	"github.com/samber/lo"
	"github.com/vidfetch/vidfetch/cmd"
	"github.com/vidfetch/vidfetch/config"
	"github.com/vidfetch/vidfetch/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
