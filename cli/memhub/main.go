package main

import (
	"os"

	memhubcmder "github.com/papercomputeco/memhub/cmd/memhub"
)

func main() {
	cmd := memhubcmder.NewMemhubCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
