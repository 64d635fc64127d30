package main

import (
	"os"

	"github.com/bnema/helpdesk-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
