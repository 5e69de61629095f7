// quorumctl is a command line front end for running solves without the
// Genkit dev server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/quorumlabs/quorum-genkit"
	"github.com/quorumlabs/quorum-genkit/internal/adapters"
	"github.com/quorumlabs/quorum-genkit/internal/cache"
	"github.com/quorumlabs/quorum-genkit/internal/config"
	"github.com/quorumlabs/quorum-genkit/internal/judge"
	"github.com/quorumlabs/quorum-genkit/internal/planner"
	"github.com/quorumlabs/quorum-genkit/internal/solver"
	"github.com/quorumlabs/quorum-genkit/internal/tools"
	"github.com/quorumlabs/quorum-genkit/internal/verifier"
)

var (
	configPath   string
	contextText  string
	forceMulti   bool
	defaultModel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quorumctl",
		Short: "Multi-candidate question solving from the command line",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&defaultModel, "model", "googleai/gemini-2.0-flash", "default model name")

	solveCmd := &cobra.Command{
		Use:   "solve [question]",
		Short: "Solve a question and print the result envelope as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&contextText, "context", "", "supporting context for the question")
	solveCmd.Flags().BoolVar(&forceMulti, "multi", false, "force multi-candidate mode for simple questions")
	rootCmd.AddCommand(solveCmd)

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered verifier tools",
		RunE:  runTools,
	}
	rootCmd.AddCommand(toolsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.File, quorum.Config, error) {
	if configPath == "" {
		return &config.File{}, quorum.DefaultConfig(), nil
	}

	f, err := config.Load(configPath)
	if err != nil {
		return nil, quorum.Config{}, err
	}
	return f, f.ToRuntimeConfig(), nil
}

func buildEngine(ctx context.Context, cfgFile *config.File, runtimeConfig quorum.Config) (*quorum.Quorum, func(), error) {
	g, err := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
		genkit.WithDefaultModel(defaultModel),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("genkit initialization failed: %w", err)
	}

	var cleanup []func()

	var dbPool *pgxpool.Pool
	if cfgFile.Database.URLEnv != "" {
		if dbURL := os.Getenv(cfgFile.Database.URLEnv); dbURL != "" {
			dbPool, err = pgxpool.New(ctx, dbURL)
			if err != nil {
				return nil, nil, fmt.Errorf("database pool creation failed: %w", err)
			}
			cleanup = append(cleanup, dbPool.Close)
		}
	}

	var planCache quorum.Cache
	if cfgFile.Cache.FilePath != "" {
		planCache = cache.NewFilePersistentCache(cfgFile.CacheTTL(), cfgFile.Cache.FilePath, &cache.StdLogger{})
	} else {
		planCache = cache.NewInMemoryCache(cfgFile.CacheTTL())
	}

	generationClient := adapters.NewGenkitGenerationClient(g)
	availableTools := tools.SetupTools(dbPool)

	basePlanner := planner.NewLLMPlanner(generationClient, runtimeConfig.MaxSolverCount)

	engine, err := quorum.New(ctx,
		quorum.WithConfig(runtimeConfig),
		quorum.WithPlanner(adapters.NewCachingPlanner(basePlanner, planCache)),
		quorum.WithSolverPool(solver.NewLLMSolverPool(generationClient)),
		quorum.WithVerifier(verifier.NewLLMVerifier(generationClient,
			verifier.WithSandboxTool(availableTools["code_sandbox"]),
		)),
		quorum.WithJudge(judge.NewScoreJudge()),
		quorum.WithTools(availableTools),
	)
	if err != nil {
		return nil, nil, err
	}
	cleanup = append(cleanup, func() { engine.Close() })

	return engine, func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfgFile, runtimeConfig, err := loadConfig()
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine(ctx, cfgFile, runtimeConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	result, err := engine.Solve(ctx, args[0], contextText, forceMulti)
	if err != nil {
		return err
	}
	log.Printf("Solved in %s via %s (solver %d, score %.2f)",
		time.Since(start).Round(time.Millisecond), result.Method, result.SolverID, result.Score)

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	cfgFile, _, err := loadConfig()
	if err != nil {
		return err
	}

	var dbPool *pgxpool.Pool
	if cfgFile.Database.URLEnv != "" {
		if dbURL := os.Getenv(cfgFile.Database.URLEnv); dbURL != "" {
			dbPool, err = pgxpool.New(cmd.Context(), dbURL)
			if err != nil {
				return err
			}
			defer dbPool.Close()
		}
	}

	for name, tool := range tools.SetupTools(dbPool) {
		desc := ""
		if d, ok := tool.Schema()["description"].(string); ok {
			desc = d
		}
		fmt.Printf("%-14s %s\n", name, desc)
	}
	return nil
}
