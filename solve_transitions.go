package quorum

import (
	"context"
	"log"
	"time"

	"github.com/quorumlabs/quorum-genkit/internal/eventbus"
)

// CreateSolveStateMachine builds a complete state machine for the solve workflow.
func CreateSolveStateMachine(components Components, eventBus eventbus.EventBus) *StateMachine {
	sm := NewStateMachine(eventBus)

	// Register all state transitions
	sm.RegisterTransition(StateInit, createInitTransition(components))
	sm.RegisterTransition(StatePlanning, createPlanningTransition(components))
	sm.RegisterTransition(StateSolving, createSolvingTransition(components))
	sm.RegisterTransition(StateVerifying, createVerifyingTransition(components))
	sm.RegisterTransition(StateJudging, createJudgingTransition(components))
	sm.RegisterTransition(StateError, createErrorTransition(components))
	sm.RegisterTransition(StateComplete, createCompleteTransition(components))

	return sm
}

// createInitTransition handles the initialization state.
func createInitTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, sc *SolveContext) (SolveState, error) {
		if eb != nil {
			startEvent := eventbus.NewEvent(
				eventbus.EventSolveStarted,
				sc.Question,
				"StateMachine.Init",
				map[string]interface{}{
					"timestamp":             time.Now().Format(time.RFC3339),
					"force_multi_candidate": sc.ForceMultiCandidate,
				},
			)
			eb.Publish(ctx, startEvent)
		}

		return StatePlanning, nil
	}
}

// createPlanningTransition handles the planning state.
func createPlanningTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, sc *SolveContext) (SolveState, error) {
		hasEventBus := eb != nil
		input := PlannerInput{
			Question:   sc.Question,
			Context:    sc.Context,
			ToolSchema: components.GetSchemas(),
		}

		if hasEventBus {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventPlanGenerationStarted,
				sc.Question,
				"StateMachine.Planning",
				nil,
			))
		}

		plan, err := components.Planner.GeneratePlan(ctx, input)
		if err != nil {
			if hasEventBus {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventPlanGenerationFailure,
					err.Error(),
					"StateMachine.Planning",
					map[string]interface{}{"error": err.Error()},
				))
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventSolveFailure,
					sc.Question,
					"StateMachine.Planning",
					map[string]interface{}{
						"error": err.Error(),
						"stage": "plan_generation",
					},
				))
			}
			// No fallback plan is ever synthesized: planning failures are fatal.
			return StateError, err
		}

		if hasEventBus {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventPlanGenerationSuccess,
				plan,
				"StateMachine.Planning",
				map[string]interface{}{
					"complexity":   string(plan.Complexity),
					"solver_count": plan.SuggestedSolverCount,
				},
			))
		}

		sc.Plan = plan
		// Simple questions bypass the round loop with a single solver unless
		// the caller forced multi-candidate mode.
		sc.SimplePath = plan.Complexity == ComplexitySimple && !sc.ForceMultiCandidate
		log.Printf("Plan created (complexity: %s, solver_count: %d, simple_path: %t)",
			plan.Complexity, plan.SuggestedSolverCount, sc.SimplePath)

		return StateSolving, nil
	}
}

// createSolvingTransition handles one round's parallel generation phase.
func createSolvingTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, sc *SolveContext) (SolveState, error) {
		hasEventBus := eb != nil

		if hasEventBus {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventRoundStarted,
				sc.Question,
				"StateMachine.Solving",
				map[string]interface{}{
					"round":        sc.Round,
					"max_rounds":   components.Config.MaxRounds,
					"solver_count": sc.Plan.SuggestedSolverCount,
				},
			))
		}

		solutions, err := components.Pool.SolveParallel(ctx, sc.Question, sc.Context, sc.Plan, sc.Round)
		if err != nil {
			return StateError, err
		}

		sc.RoundSolutions = solutions
		sc.AllSolutions = append(sc.AllSolutions, solutions...)

		if len(solutions) == 0 {
			// Every solver in this round failed. The round produced nothing to
			// verify; advance, or fall through to final judging on the last round.
			roundErr := NewAllSolversFailedError(sc.Round)
			log.Printf("%v", roundErr)
			if hasEventBus {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventAllSolversFailed,
					sc.Question,
					"StateMachine.Solving",
					map[string]interface{}{"round": sc.Round},
				))
			}
			if sc.SimplePath {
				return StateError, NewNoCandidatesError("solving")
			}
			if sc.Round+1 < components.Config.MaxRounds {
				sc.Round++
				return StateSolving, nil
			}
			return StateJudging, nil
		}

		return StateVerifying, nil
	}
}

// createVerifyingTransition verifies the round's solutions in solverId order.
//
// The scan short-circuits: when early stop is enabled, the first solution that
// verifies at or above the threshold wins, even if a later solution in the
// same round would have scored higher.
func createVerifyingTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, sc *SolveContext) (SolveState, error) {
		hasEventBus := eb != nil
		cfg := components.Config

		for _, solution := range sc.RoundSolutions {
			if hasEventBus {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventVerificationStarted,
					solution.SolverID,
					"StateMachine.Verifying",
					map[string]interface{}{"round": sc.Round},
				))
			}

			if err := components.Verifier.Verify(ctx, solution, sc.Question, sc.Plan); err != nil {
				if hasEventBus {
					eb.Publish(ctx, eventbus.NewEvent(
						eventbus.EventVerificationFailure,
						err.Error(),
						"StateMachine.Verifying",
						map[string]interface{}{
							"solver_id": solution.SolverID,
							"round":     sc.Round,
						},
					))
				}
				return StateError, err
			}

			if hasEventBus {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventVerificationSuccess,
					solution.SolverID,
					"StateMachine.Verifying",
					map[string]interface{}{
						"score":  solution.Score,
						"passed": solution.Status == SolutionStatusVerified,
					},
				))
			}

			if sc.SimplePath {
				// Fast path: one solver, one verification, return immediately.
				sc.Best = solution
				sc.Method = MethodSimple
				sc.FinalResult = formatResult(sc)
				return StateComplete, nil
			}

			if cfg.EnableEarlyStop &&
				solution.Status == SolutionStatusVerified &&
				solution.Score >= cfg.VerificationThreshold {

				log.Printf("Early stop: solver %d verified (score: %.2f, round: %d)",
					solution.SolverID, solution.Score, sc.Round)
				if hasEventBus {
					eb.Publish(ctx, eventbus.NewEvent(
						eventbus.EventEarlyStop,
						solution.SolverID,
						"StateMachine.Verifying",
						map[string]interface{}{
							"score": solution.Score,
							"round": sc.Round,
						},
					))
				}

				sc.Best = solution
				sc.Method = MethodEarlyStop
				sc.FinalResult = formatResult(sc)
				return StateComplete, nil
			}
		}

		return StateJudging, nil
	}
}

// createJudgingTransition selects the round's best and decides whether to
// stop, regenerate, or fall back to cross-round judging.
func createJudgingTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, sc *SolveContext) (SolveState, error) {
		hasEventBus := eb != nil
		cfg := components.Config

		// An empty round can only reach judging on the final round; fall
		// straight through to the cross-round pool.
		if len(sc.RoundSolutions) > 0 {
			best, err := components.Judge.Select(sc.RoundSolutions)
			if err != nil {
				return StateError, err
			}

			if best.Score >= cfg.VerificationThreshold {
				if hasEventBus {
					eb.Publish(ctx, eventbus.NewEvent(
						eventbus.EventJudgingSelected,
						best.SolverID,
						"StateMachine.Judging",
						map[string]interface{}{
							"score": best.Score,
							"round": sc.Round,
						},
					))
				}
				sc.Best = best
				sc.Method = MethodJudged
				sc.FinalResult = formatResult(sc)
				return StateComplete, nil
			}

			log.Printf("Round %d best score %.2f below threshold %.2f",
				sc.Round, best.Score, cfg.VerificationThreshold)

			if sc.Round+1 < cfg.MaxRounds {
				// Disqualify the round's verified survivors before regenerating.
				// They keep their scores and stay in the cross-round pool.
				for _, s := range sc.RoundSolutions {
					if s.Status == SolutionStatusVerified {
						s.Status = SolutionStatusRejected
						if hasEventBus {
							eb.Publish(ctx, eventbus.NewEvent(
								eventbus.EventJudgingRejected,
								s.SolverID,
								"StateMachine.Judging",
								map[string]interface{}{"round": sc.Round},
							))
						}
					}
				}
				sc.Round++
				return StateSolving, nil
			}
		}

		// All rounds exhausted: judge over every solution ever generated.
		best, err := components.Judge.Select(sc.AllSolutions)
		if err != nil {
			if hasEventBus {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventSolveFailure,
					sc.Question,
					"StateMachine.Judging",
					map[string]interface{}{
						"error": err.Error(),
						"stage": "judging",
					},
				))
			}
			return StateError, err
		}

		log.Printf("Best solution after %d round(s): solver %d (score: %.2f)",
			sc.Round+1, best.SolverID, best.Score)
		if hasEventBus {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventJudgingSelected,
				best.SolverID,
				"StateMachine.Judging",
				map[string]interface{}{
					"score":       best.Score,
					"cross_round": true,
				},
			))
		}

		sc.Best = best
		sc.Method = MethodJudged
		sc.FinalResult = formatResult(sc)
		return StateComplete, nil
	}
}

// createErrorTransition handles error states.
func createErrorTransition(_ Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, sc *SolveContext) (SolveState, error) {
		// The error is already recorded in the solve context; surface it
		// through the terminal state.
		return StateComplete, sc.LastError
	}
}

// createCompleteTransition handles the complete state.
func createCompleteTransition(_ Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, sc *SolveContext) (SolveState, error) {
		return StateComplete, nil
	}
}

// formatResult builds the result envelope from the winning solution.
func formatResult(sc *SolveContext) *Result {
	best := sc.Best
	return &Result{
		Answer:       best.Content,
		SolverID:     best.SolverID,
		Confidence:   best.Confidence,
		Verification: best.VerificationResult,
		Score:        best.Score,
		Status:       best.Status,
		Method:       sc.Method,
		Plan: PlanSummary{
			Strategy:    sc.Plan.Strategy,
			Complexity:  sc.Plan.Complexity,
			SolverCount: sc.Plan.SuggestedSolverCount,
		},
		AllSolutions:            sc.SolutionSummaries(),
		ExecutionTimeMs:         float64(sc.GetTotalDuration()) / float64(time.Millisecond),
		TotalSolutionsGenerated: len(sc.AllSolutions),
	}
}
