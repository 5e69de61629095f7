// main.go
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quorumlabs/quorum-genkit"
	"github.com/quorumlabs/quorum-genkit/internal/adapters"
	"github.com/quorumlabs/quorum-genkit/internal/cache"
	"github.com/quorumlabs/quorum-genkit/internal/judge"
	"github.com/quorumlabs/quorum-genkit/internal/planner"
	"github.com/quorumlabs/quorum-genkit/internal/solver"
	"github.com/quorumlabs/quorum-genkit/internal/tools"
	"github.com/quorumlabs/quorum-genkit/internal/verifier"
)

// SolveRequest is the flow input.
type SolveRequest struct {
	Question            string `json:"question"`
	Context             string `json:"context"`
	ForceMultiCandidate bool   `json:"force_multi_candidate"`
}

func main() {
	ctx := context.Background()

	// Configure Google AI plugin (Gemini)
	// Ensure GEMINI_API_KEY environment variable is set
	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set.")
	}

	// Initialize Genkit with the Google AI plugin
	g, err := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
		genkit.WithDefaultModel("googleai/gemini-2.0-flash"),
	)
	if err != nil {
		log.Fatal("Genkit initialization failed:", err)
	}

	// Optional Postgres pool for the sql_reader tool
	var dbPool *pgxpool.Pool
	if dbURL := os.Getenv("QUORUM_DATABASE_URL"); dbURL != "" {
		dbPool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatal("Database pool creation failed:", err)
		}
		defer dbPool.Close()
	}

	// Create dependencies
	generationClient := adapters.NewGenkitGenerationClient(g)
	memCache := cache.NewInMemoryCache(10 * time.Minute)
	availableTools := tools.SetupTools(dbPool)

	runtimeConfig := quorum.DefaultConfig()

	basePlanner := planner.NewLLMPlanner(generationClient, runtimeConfig.MaxSolverCount)
	cachingPlanner := adapters.NewCachingPlanner(basePlanner, memCache)

	engine, err := quorum.New(ctx,
		quorum.WithConfig(runtimeConfig),
		quorum.WithPlanner(cachingPlanner),
		quorum.WithSolverPool(solver.NewLLMSolverPool(generationClient)),
		quorum.WithVerifier(verifier.NewLLMVerifier(generationClient,
			verifier.WithSandboxTool(availableTools["code_sandbox"]),
		)),
		quorum.WithJudge(judge.NewScoreJudge()),
		quorum.WithTools(availableTools),
	)
	if err != nil {
		log.Fatal("Quorum initialization failed:", err)
	}
	defer engine.Close()

	// --- Define Main Solve Flow ---
	_ = genkit.DefineFlow(g, "quorumSolveFlow",
		func(ctx context.Context, req *SolveRequest) (*quorum.Result, error) {
			return engine.Solve(ctx, req.Question, req.Context, req.ForceMultiCandidate)
		},
	)

	log.Println("Genkit initialized successfully. Quorum solve flow defined.")
	log.Println(`To run: genkit flow run quorumSolveFlow '{"question": "Your question here"}'`)
	// Keep the application running (e.g., for local testing with genkit start)
	select {}
}
