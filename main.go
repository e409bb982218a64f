package main

import (
	"os"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/condamatrix/cmd"
)

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	// Token and channel settings commonly live in a local .env during
	// development; a missing file is fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		logger.Fatalf("Error executing 'condamatrix': %s", err)
	}
}
