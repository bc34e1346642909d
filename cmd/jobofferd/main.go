// cmd/jobofferd/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"job-offer-pipeline/internal/common/config"
)

var configPath string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobofferd",
		Short:         "Job offer extraction and search service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (defaults to configs/config.yaml)")

	root.AddCommand(newServeCommand(), newMigrateCommand(), newReindexCommand())
	return root
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
