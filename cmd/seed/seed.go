package main

import (
	"context"
	"fmt"
	"log"

	"github.com/nulzo/model-registry-api/internal/cli"
	"github.com/nulzo/model-registry-api/internal/logger"
	"github.com/nulzo/model-registry-api/internal/store/model"
	"github.com/nulzo/model-registry-api/internal/store/sqlite"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func main() {
	repo, err := sqlite.NewSQLiteStorage("file:registry.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", logger.Get())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	seeds := []struct {
		provider model.ModelProvider
		models   []model.Model
	}{
		{
			provider: model.ModelProvider{
				Name:         "openai",
				DisplayName:  "OpenAI",
				Description:  strPtr("OpenAI hosted models"),
				APIBaseURL:   strPtr("https://api.openai.com/v1"),
				APIKeyEnvVar: strPtr("OPENAI_API_KEY"),
				IsActive:     true,
			},
			models: []model.Model{
				{
					Name:              "gpt-4",
					DisplayName:       "GPT-4",
					ModelType:         "chat",
					ContextWindow:     intPtr(8192),
					IsActive:          true,
					DefaultParameters: model.JSONMap{"temperature": 0.7},
				},
				{
					Name:          "text-embedding-3-small",
					DisplayName:   "Text Embedding 3 Small",
					ModelType:     "embedding",
					ContextWindow: intPtr(8191),
					IsActive:      true,
				},
			},
		},
		{
			provider: model.ModelProvider{
				Name:         "anthropic",
				DisplayName:  "Anthropic",
				APIBaseURL:   strPtr("https://api.anthropic.com"),
				APIKeyEnvVar: strPtr("ANTHROPIC_API_KEY"),
				IsActive:     true,
			},
			models: []model.Model{
				{
					Name:              "claude-3-opus",
					DisplayName:       "Claude 3 Opus",
					ModelType:         "chat",
					ContextWindow:     intPtr(200000),
					IsActive:          true,
					DefaultParameters: model.JSONMap{"max_tokens": 4096},
				},
			},
		},
		{
			provider: model.ModelProvider{
				Name:        "ollama",
				DisplayName: "Ollama Local",
				APIBaseURL:  strPtr("http://localhost:11434"),
				IsActive:    false,
			},
			models: nil,
		},
	}

	for _, s := range seeds {
		created, err := repo.Providers().Create(ctx, &s.provider)
		if err != nil {
			fmt.Printf("%s %s: %v\n", cli.CrossMark(), s.provider.Name, err)
			continue
		}
		fmt.Printf("%s %s\n", cli.CheckMark(), created.Name)
		cli.PrettyPrint(created)

		for _, m := range s.models {
			m.ProviderID = created.ID
			cm, err := repo.Models().Create(ctx, &m)
			if err != nil {
				fmt.Printf("  %s %s: %v\n", cli.CrossMark(), m.Name, err)
				continue
			}
			fmt.Printf("  %s %s\n", cli.Arrow(), cm.Name)
		}
	}

	fmt.Println("\nSuccessfully seeded database!")
}
