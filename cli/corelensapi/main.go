package main

import (
	"os"

	servecmder "github.com/corelens-ai/corelens/cmd/corelens/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "corelensapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .corelens/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
