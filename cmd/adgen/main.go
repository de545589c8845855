// Command adgen generates one batch of ad copy candidates from the command
// line. It loads a YAML configuration, resolves the configured provider
// through its API key environment variable, runs the generation pipeline,
// and prints the scored results.
//
// Usage:
//
//	adgen -config config.yaml -keywords "amarres de amor,tarot" -count 5
//
// The provider API key is read from the environment (OPENAI_API_KEY,
// ANTHROPIC_API_KEY, or GOOGLE_API_KEY depending on the configured
// provider).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ahrav/go-copyforge/infrastructure/pipeline"
	"github.com/ahrav/go-copyforge/infrastructure/storage"
	"github.com/ahrav/go-copyforge/internal/application"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML configuration (defaults apply when empty)")
		keywords   = flag.String("keywords", "", "Comma-separated seed keywords (required)")
		tone       = flag.String("tone", "profesional", "Copy tone for the batch")
		count      = flag.Int("count", 3, "Number of candidates to generate")
		locations  = flag.Bool("locations", false, "Request dynamic location placeholders")
		jsonOut    = flag.Bool("json", false, "Emit the full batch as JSON instead of a summary")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if *keywords == "" {
		flag.Usage()
		log.Fatal("missing required flag: -keywords")
	}

	// Step 1: Load and validate the configuration.
	config := application.DefaultConfig()
	if *configPath != "" {
		loaded, err := application.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		config = loaded
	}

	// Step 2: Verify the provider's API key is present before doing any work.
	if err := verifyEnvironment(config.Provider.Name); err != nil {
		log.Fatalf("Environment check failed: %v", err)
	}

	// Step 3: Build the service with an in-memory store.
	logger, err := buildLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is harmless at exit

	svc, err := application.NewServiceFromEnv(config, storage.NewMemoryStore(), logger, nil)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	// Step 4: Run the batch.
	batch, err := svc.GenerateBatch(context.Background(), pipeline.BatchRequest{
		Request: pipeline.GenerationRequest{
			Keywords:              splitKeywords(*keywords),
			Tone:                  *tone,
			UsesLocationInsertion: *locations,
		},
		Count: *count,
	})
	if err != nil {
		log.Fatalf("Batch generation failed: %v", err)
	}

	// Step 5: Report results.
	if *jsonOut {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(batch); err != nil {
			log.Fatalf("Failed to encode batch: %v", err)
		}
		return
	}

	fmt.Printf("Batch %s: %d requested, %d successful, %d failed (%s)\n",
		batch.BatchID, batch.Requested, batch.Successful, batch.Failed, batch.Elapsed)
	for i, candidate := range batch.Candidates {
		fmt.Printf("\n--- Candidate %d (%s, tone=%s) ---\n", i+1, candidate.ID, candidate.Tone)
		if !candidate.Accepted() {
			fmt.Printf("  FAILED: %s\n", candidate.Error)
			continue
		}
		for _, warning := range candidate.Warnings {
			fmt.Printf("  warning: %s\n", warning)
		}
		fmt.Println("  Headlines:")
		for j, headline := range candidate.Headlines {
			score := ""
			if candidate.Score != nil && j < len(candidate.Score.Results) {
				result := candidate.Score.Results[j]
				score = fmt.Sprintf("  [%.0f %s]", result.Score, result.Rank)
			}
			fmt.Printf("    %2d. %s%s\n", j+1, headline, score)
		}
		fmt.Println("  Descriptions:")
		for j, description := range candidate.Descriptions {
			fmt.Printf("    %2d. %s\n", j+1, description)
		}
		if candidate.Score != nil {
			fmt.Printf("  Average score: %.1f (%d/%d publishable)\n",
				candidate.Score.Average, candidate.Score.Publishable, len(candidate.Score.Results))
			for _, rec := range candidate.Score.Recommendations {
				fmt.Printf("  tip: %s\n", rec)
			}
		}
	}

	if usage, ok := svc.Usage(); ok {
		fmt.Printf("\nBudget usage: %d tokens across %d calls\n", usage.Tokens, usage.Calls)
	}
}

// verifyEnvironment checks that the configured provider's API key variable
// is set, failing fast before any pipeline work starts.
func verifyEnvironment(provider string) error {
	keyVars := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"google":    "GOOGLE_API_KEY",
	}
	keyVar, ok := keyVars[provider]
	if !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}
	if os.Getenv(keyVar) == "" {
		return fmt.Errorf("%s is not set (required for provider %q)", keyVar, provider)
	}
	return nil
}

// buildLogger returns a production zap logger, or a development one when
// verbose output is requested.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// splitKeywords parses the comma-separated keyword flag, trimming whitespace
// and dropping empty entries.
func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}
