package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/waterwise/internal/garden"
)

func seedCatalogCommand(rt *deps) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Load plant catalog entries from a JSON file into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}

			var entries []garden.CatalogEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("decode catalog %s: %w", file, err)
			}

			n, err := rt.garden.ImportCatalog(cmd.Context(), entries)
			if err != nil {
				return err
			}

			rt.log.Info("catalog seeded", zap.String("file", file), zap.Int("entries", n))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d catalog entries\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a JSON array of catalog entries")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
