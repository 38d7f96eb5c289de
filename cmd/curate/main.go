package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"message-orchestrator/internal/adapter/embedding"
	"message-orchestrator/internal/domain"
	"message-orchestrator/internal/usecase/curation"
)

var (
	version = "dev"

	// Global flags
	verbose bool

	// Run command flags
	messagesFile  string
	preferences   []string
	threshold     float64
	topK          int
	lexicalOnly   bool
	embedderURL   string
	embedderModel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "curate",
	Short:   "Run the message curation pipeline offline",
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Curate a messages file against preferences",
	Long: `Read a JSON array of messages, score them against the given
preferences and print the important/regular partition as JSON.

Examples:
  # Curate with both lexical and semantic scoring
  curate run --messages messages.json --preference physics --preference technology

  # Lexical-only scoring, no embedding service required
  curate run --messages messages.json --preference physics --lexical-only

  # Custom threshold and cap
  curate run --messages messages.json --preference physics --threshold 0.3 --top-k 10`,
	RunE: runCuration,
}

var synonymsCmd = &cobra.Command{
	Use:   "synonyms [file]",
	Short: "Validate a synonym table file",
	Args:  cobra.ExactArgs(1),
	RunE:  validateSynonyms,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	runCmd.Flags().StringVar(&messagesFile, "messages", "", "path to a JSON array of messages (- for stdin)")
	runCmd.Flags().StringArrayVar(&preferences, "preference", nil, "preference topic (repeatable)")
	runCmd.Flags().Float64Var(&threshold, "threshold", 0.25, "hybrid score threshold")
	runCmd.Flags().IntVar(&topK, "top-k", 30, "maximum important messages")
	runCmd.Flags().BoolVar(&lexicalOnly, "lexical-only", false, "skip semantic scoring entirely")
	runCmd.Flags().StringVar(&embedderURL, "embedder-url", "", "embedding service URL (defaults to EMBEDDER_URL)")
	runCmd.Flags().StringVar(&embedderModel, "model", "all-minilm", "embedding model name")
	runCmd.MarkFlagRequired("messages")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(synonymsCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// zeroEncoder stands in for the embedding service in lexical-only mode.
// Zero vectors make every cosine similarity 0, so the semantic term drops
// out of the hybrid score.
type zeroEncoder struct{}

func (zeroEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0}
	}
	return out, nil
}

func (zeroEncoder) Version() string { return "none" }

func runCuration(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	messages, err := readMessages(messagesFile)
	if err != nil {
		return err
	}

	synonyms := domain.DefaultSynonymTable()
	if path := os.Getenv("SYNONYMS_PATH"); path != "" {
		synonyms, err = domain.LoadSynonymTable(path)
		if err != nil {
			return fmt.Errorf("failed to load synonym table: %w", err)
		}
	}

	var encoder domain.VectorEncoder = zeroEncoder{}
	if !lexicalOnly {
		url := embedderURL
		if url == "" {
			url = os.Getenv("EMBEDDER_URL")
		}
		if url == "" {
			return fmt.Errorf("embedder URL is required (set --embedder-url, EMBEDDER_URL, or use --lexical-only)")
		}
		encoder = embedding.NewOllamaEmbedder(url, embedderModel, 30)
	}

	lexical := curation.NewLexicalScorer(synonyms, 0.7, 0.3)
	semantic := curation.NewSemanticScorer(encoder, 256)
	curator := curation.NewCurator(lexical, semantic, curation.DefaultOptions(), logger)

	result := curator.Curate(cmd.Context(), messages, preferences, threshold, topK)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readMessages(path string) ([]domain.Message, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	return messages, nil
}

func validateSynonyms(cmd *cobra.Command, args []string) error {
	table, err := domain.LoadSynonymTable(args[0])
	if err != nil {
		return fmt.Errorf("invalid synonym table: %w", err)
	}

	fmt.Printf("OK: %d preference entries\n", len(table))
	for pref, expansions := range table {
		fmt.Printf("  %s: %d keywords\n", pref, len(expansions))
	}
	return nil
}
