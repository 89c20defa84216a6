package main

import (
	"os"

	"github.com/civimail/sesbounce/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
