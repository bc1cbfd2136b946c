// Package main is the entry point for the coachbridge CLI.
package main

import (
	"os"

	"github.com/CoachBridge/CoachBridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
