package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/chroma-client/internal/app"
)

type syncSummary struct {
	Collection string   `json:"collection" yaml:"collection"`
	Upserted   []string `json:"upserted" yaml:"upserted"`
	Skipped    int      `json:"skipped" yaml:"skipped"`
	Unscraped  []string `json:"unscraped,omitempty" yaml:"unscraped,omitempty"`
}

func syncCmd(rt *runtime) *cobra.Command {
	var (
		manifestFile   string
		publishersFile string
		storageType    string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push the collections declared in a manifest to the server once",
		Long: `Sync creates missing collections and upserts every embedding whose content
changed since the last sync. Embeddings with a document_url and no document
get their text scraped from the page first. Change events go to the
publishers declared in the publishers file, if any.`,
		Example: `  chromactl sync --manifest configs/manifest.yaml
  chromactl sync --storage none`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rt.config(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("manifest") {
				cfg.ManifestFile = manifestFile
			}
			if cmd.Flags().Changed("publishers") {
				cfg.PublishersFile = publishersFile
			}
			if cmd.Flags().Changed("storage") {
				cfg.StorageType = storageType
			}
			log, err := rt.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			s, err := app.NewSyncer(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()

			results, runErr := s.RunOnce(cmd.Context())
			out := make([]syncSummary, 0, len(results))
			for _, r := range results {
				if r.Collection == "" {
					continue
				}
				out = append(out, syncSummary{Collection: r.Collection, Upserted: r.Upserted, Skipped: r.Skipped, Unscraped: r.Unscraped})
			}
			if err := rt.print(out); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&manifestFile, "manifest", "", "manifest file (overrides MANIFEST_FILE)")
	cmd.Flags().StringVar(&publishersFile, "publishers", "", "publishers file (overrides PUBLISHERS_FILE)")
	cmd.Flags().StringVar(&storageType, "storage", "", "sync ledger backend: bbolt or none")
	return cmd
}
