package main

import (
	"fmt"
	"os"

	"github.com/ardanlabs/gloo/internal/logger"
)

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
