package main

import (
	"os"

	corelenscmder "github.com/corelens-ai/corelens/cmd/corelens"
)

func main() {
	cmd := corelenscmder.NewCorelensCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
