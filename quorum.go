// Package quorum provides a multi-candidate orchestration runtime for
// AI-powered question answering: a planner sizes the effort, parallel solvers
// generate candidate answers, a verifier scores them, and a judge selects the
// winner across one or more rounds.
package quorum

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/quorumlabs/quorum-genkit/internal/eventbus"
)

// Quorum is the main entry point into the quorum-genkit runtime.
// It encapsulates all components required for multi-candidate solving.
type Quorum struct {
	// Core components
	planner  Planner
	pool     SolverPool
	verifier Verifier
	judge    Judge
	eventBus eventbus.EventBus

	// Available tools
	tools map[string]Tool

	// Configuration
	config Config

	// Async processing
	asyncSolves      map[string]*SolveContext
	asyncSolvesMutex sync.RWMutex
}

// Components holds references to the core components needed for state transitions.
type Components struct {
	Planner  Planner
	Pool     SolverPool
	Verifier Verifier
	Judge    Judge
	Tools    map[string]Tool
	Config   Config

	// Function to retrieve tool schemas
	GetSchemas func() map[string]map[string]interface{}
}

// Config holds the configuration options for the Quorum runtime.
type Config struct {
	// Upper bound on solvers per round; the planner's suggestion is clamped to it
	MaxSolverCount int

	// Minimum verification score for a solution to end the solve
	VerificationThreshold float64

	// Number of generate/verify/judge rounds before falling back to
	// cross-round judging
	MaxRounds int

	// Stop at the first solution that verifies at or above the threshold
	EnableEarlyStop bool

	// Overall solve timeout; zero disables it
	SolveTimeout time.Duration

	// Event bus configuration
	EnableEventBus      bool
	EventBusBufferSize  int
	EventBusWorkerCount int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxSolverCount:        5,
		VerificationThreshold: 0.85,
		MaxRounds:             2,
		EnableEarlyStop:       true,
		SolveTimeout:          time.Minute * 5,
		EnableEventBus:        true,
		EventBusBufferSize:    100,
		EventBusWorkerCount:   5,
	}
}

// Option is a function that configures a Quorum instance.
type Option func(*Quorum)

// WithConfig sets the configuration for
func WithConfig(config Config) Option {
	return func(q *Quorum) {
		q.config = config
	}
}

// WithPlanner sets the planner component.
func WithPlanner(planner Planner) Option {
	return func(q *Quorum) {
		q.planner = planner
	}
}

// WithSolverPool sets the solver pool component.
func WithSolverPool(pool SolverPool) Option {
	return func(q *Quorum) {
		q.pool = pool
	}
}

// WithVerifier sets the verifier component.
func WithVerifier(verifier Verifier) Option {
	return func(q *Quorum) {
		q.verifier = verifier
	}
}

// WithJudge sets the judge component.
func WithJudge(judge Judge) Option {
	return func(q *Quorum) {
		q.judge = judge
	}
}

// WithTools adds tools to the runtime.
func WithTools(tools map[string]Tool) Option {
	return func(q *Quorum) {
		if q.tools == nil {
			q.tools = make(map[string]Tool)
		}

		for name, tool := range tools {
			q.tools[name] = tool
		}
	}
}

// New creates a new Quorum instance with the provided options.
func New(ctx context.Context, options ...Option) (*Quorum, error) {
	// Create with default configuration
	q := &Quorum{
		config:      DefaultConfig(),
		tools:       make(map[string]Tool),
		asyncSolves: make(map[string]*SolveContext),
	}

	// Apply options
	for _, option := range options {
		option(q)
	}

	// Validate required components
	if q.planner == nil {
		return nil, NewConfigurationError("planner is required", nil)
	}

	if q.pool == nil {
		return nil, NewConfigurationError("solver pool is required", nil)
	}

	if q.verifier == nil {
		return nil, NewConfigurationError("verifier is required", nil)
	}

	if q.judge == nil {
		return nil, NewConfigurationError("judge is required", nil)
	}

	if q.config.MaxRounds < 1 {
		return nil, NewConfigurationError("max rounds must be at least 1", nil)
	}

	if q.config.VerificationThreshold < 0 || q.config.VerificationThreshold > 1 {
		return nil, NewConfigurationError(
			fmt.Sprintf("verification threshold must be in [0, 1], got %.2f", q.config.VerificationThreshold), nil)
	}

	// Initialize event bus if enabled but not provided
	if q.config.EnableEventBus && q.eventBus == nil {
		// Create a default channel-based event bus
		q.eventBus = eventbus.NewChannelEventBus(
			eventbus.WithBufferSize(q.config.EventBusBufferSize),
			eventbus.WithWorkerCount(q.config.EventBusWorkerCount),
		)
		log.Printf("Initialized default channel-based event bus")
	}

	return q, nil
}

// RegisterTool adds a new tool to the Quorum runtime.
func (q *Quorum) RegisterTool(name string, tool Tool) error {
	if _, exists := q.tools[name]; exists {
		return fmt.Errorf("tool with name '%s' already exists", name)
	}

	q.tools[name] = tool
	return nil
}

// GetToolSchemas returns a map of tool names to their full schemas,
// suitable for use in planner prompts.
func (q *Quorum) GetToolSchemas() map[string]map[string]interface{} {
	schemas := make(map[string]map[string]interface{})

	for name, tool := range q.tools {
		schemas[name] = tool.Schema()
	}

	return schemas
}

// Solve answers a question end-to-end through the Quorum runtime using a
// pushdown automaton state machine approach (State Machine with a stack).
//
// supportingContext may be empty. When forceMultiCandidate is true, simple
// questions still go through the full round loop.
func (q *Quorum) Solve(ctx context.Context, question, supportingContext string, forceMultiCandidate bool) (*Result, error) {
	if q.config.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.config.SolveTimeout)
		defer cancel()
	}

	// Create a state machine for solving
	stateMachine := q.createStateMachine()

	// Create an initial solve context with the question
	solveContext := NewSolveContext(question, supportingContext, forceMultiCandidate)

	// Execute the state machine until completion or error
	return stateMachine.Execute(ctx, solveContext)
}

// createStateMachine builds a state machine with all necessary transitions
// for the Quorum solve workflow.
func (q *Quorum) createStateMachine() *StateMachine {
	// Determine if event bus should be used
	var eventBus eventbus.EventBus
	if q.config.EnableEventBus {
		eventBus = q.eventBus
	}

	// Build components structure to pass to state machine
	components := Components{
		Planner:  q.planner,
		Pool:     q.pool,
		Verifier: q.verifier,
		Judge:    q.judge,
		Tools:    make(map[string]Tool),
		Config:   q.config,
		GetSchemas: func() map[string]map[string]interface{} {
			return q.GetToolSchemas()
		},
	}

	// Add tools
	for name, tool := range q.tools {
		components.Tools[name] = tool
	}

	// Create and return the state machine
	return CreateSolveStateMachine(components, eventBus)
}

// GetToolByName returns a tool by its name, or an error if not found.
func (q *Quorum) GetToolByName(name string) (Tool, error) {
	if tool, exists := q.tools[name]; exists {
		return tool, nil
	}
	return nil, NewToolNotFoundError("lookup", name)
}

// ListTools returns a list of all registered tool names.
func (q *Quorum) ListTools() []string {
	names := make([]string, 0, len(q.tools))
	for name := range q.tools {
		names = append(names, name)
	}
	return names
}

// Close releases runtime resources, shutting down the event bus if one is
// running.
func (q *Quorum) Close() error {
	if q.eventBus != nil {
		return q.eventBus.Close()
	}
	return nil
}
