package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Provider API keys may live in a local .env; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "pprd",
		Short: "Materialize Portfolio/Product PRDs from repository templates",
	}

	root.AddCommand(newGenerateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
