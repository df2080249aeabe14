package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/confsync/internal/core/ports/driven"
	"github.com/custodia-labs/confsync/internal/core/services"
)

var (
	searchLimit int
	searchSpace string
	searchDoc   string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks",
	Long: `Embeds the query and runs a similarity search over the vector
index. Requires a persistent vector backend (pgvector); the in-memory
index only lives for the duration of a sync run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", services.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().StringVar(&searchSpace, "space", "", "restrict results to a space key")
	searchCmd.Flags().StringVar(&searchDoc, "doc", "", "restrict results to a document ID")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	if embedder == nil {
		return fmt.Errorf("search requires an embedding provider (set embedding.provider)")
	}
	defer embedder.Close()

	vectorIndex, err := newVectorIndex(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	defer vectorIndex.Close()

	var filter *driven.VectorFilter
	if searchSpace != "" || searchDoc != "" {
		filter = &driven.VectorFilter{SpaceKey: searchSpace, DocID: searchDoc}
	}

	hits, err := services.NewSearchService(embedder, vectorIndex).Search(ctx, query, searchLimit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchJSON(cmd *cobra.Command, hits []driven.VectorHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []driven.VectorHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range hits {
		title := hit.Chunk.Metadata.Title
		if title == "" {
			title = hit.Chunk.DocID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hit.Similarity)
		if hit.Chunk.Metadata.SectionHeading != "" {
			cmd.Printf("      Section: %s\n", hit.Chunk.Metadata.SectionHeading)
		}
		cmd.Printf("      %s\n", snippet(hit.Chunk.Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates text to at most n runes on a rune boundary.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
