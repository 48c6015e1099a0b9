package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func main() {
	// .env is optional; real deployments inject the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "agritech",
		Short:         "Agritech marketplace API with PayPack mobile-money payments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
