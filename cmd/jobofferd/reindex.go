package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the job offer store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			if !cfg.Database.Elasticsearch.Enabled {
				return fmt.Errorf("reindex requires database.elasticsearch.enabled")
			}
			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.jobOffers.Reindex(cmd.Context())
			if err != nil {
				return fmt.Errorf("reindex stopped after %d records: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d job offers\n", n)
			return nil
		},
	}
}
