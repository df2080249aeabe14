package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/confsync/internal/connectors/confluence"
	"github.com/custodia-labs/confsync/internal/core/services"
	"github.com/custodia-labs/confsync/internal/normalisers/adf"
	"github.com/custodia-labs/confsync/internal/postprocessors/chunker"
)

var syncMaxTokens int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise changed pages from Confluence",
	Long: `Fetches pages modified since the last completed sync, normalises
and chunks their content, and updates the vector index. The watermark
only advances when the fetch loop completes cleanly, so an interrupted
run is retried in full next time.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncMaxTokens, "max-tokens", 0, "per-chunk token budget (default from config)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Confluence.BaseURL == "" {
		return fmt.Errorf("confluence base URL not configured (set confluence.base_url or CONFLUENCE_BASE_URL)")
	}

	source, err := confluence.NewSource(confluence.Config{
		BaseURL:    cfg.Confluence.BaseURL,
		Username:   cfg.Confluence.Username,
		APIToken:   cfg.Confluence.APIToken,
		PageLimit:  cfg.Confluence.PageLimit,
		MaxRetries: cfg.Confluence.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("configuring source: %w", err)
	}
	defer source.Close()

	if err := source.Validate(ctx); err != nil {
		return fmt.Errorf("validating source: %w", err)
	}

	metaStore, closeStore, err := newMetadataStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	if embedder != nil {
		defer embedder.Close()
	}

	vectorIndex, err := newVectorIndex(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	if vectorIndex != nil {
		defer vectorIndex.Close()
	}

	maxTokens := syncMaxTokens
	if maxTokens == 0 {
		maxTokens = cfg.Chunking.MaxTokens
	}
	opts := []chunker.Option{}
	if maxTokens > 0 {
		opts = append(opts, chunker.WithMaxTokens(maxTokens))
	}

	coordinator := services.NewSyncCoordinator(
		source,
		metaStore,
		adf.New(),
		chunker.New(opts...),
		embedder,
		vectorIndex,
	)

	cmd.Println("Synchronising...")
	summary, err := coordinator.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Sync complete: %d fetched, %d updated, %d skipped, %d errors\n",
		summary.Fetched, summary.Updated, summary.Skipped, summary.Errors)
	return nil
}
