package quorum

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quorumlabs/quorum-genkit/internal/eventbus"
)

// AsyncSolveStatus represents the status information for an async solve.
type AsyncSolveStatus struct {
	SolveID      string        `json:"solve_id"`
	Question     string        `json:"question"`
	CurrentState SolveState    `json:"current_state"`
	Round        int           `json:"round"`
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration"`
	IsComplete   bool          `json:"is_complete"`
	HasError     bool          `json:"has_error"`
	ErrorMessage string        `json:"error_message,omitempty"`
	ErrorStage   string        `json:"error_stage,omitempty"`
}

// SolveAsync starts an asynchronous solve.
// It returns a unique solve ID that can be used to check the status or get the result.
func (q *Quorum) SolveAsync(ctx context.Context, question, supportingContext string, forceMultiCandidate bool) (string, error) {
	// Generate a unique solve ID
	solveID := uuid.New().String()

	// Create a state machine for solving
	stateMachine := q.createStateMachine()

	// Create an initial solve context with the question
	solveContext := NewSolveContext(question, supportingContext, forceMultiCandidate)

	// Store the solve context in our map
	q.asyncSolvesMutex.Lock()
	q.asyncSolves[solveID] = solveContext
	q.asyncSolvesMutex.Unlock()

	// Create a new background context with cancellation for this async operation
	asyncCtx, cancel := context.WithCancel(context.Background())
	if q.config.SolveTimeout > 0 {
		asyncCtx, cancel = context.WithTimeout(context.Background(), q.config.SolveTimeout)
	}

	// Store the cancel function in the state data for potential cancellation
	solveContext.StateData["cancel"] = cancel

	// Check if event bus is available
	if q.config.EnableEventBus && q.eventBus != nil {
		startEvent := eventbus.NewEvent(
			eventbus.EventAsyncSolveStarted,
			question,
			"Quorum.SolveAsync",
			map[string]interface{}{
				"timestamp": time.Now().Format(time.RFC3339),
				"solve_id":  solveID,
			},
		)
		q.eventBus.Publish(ctx, startEvent)
	}

	// Start a goroutine to execute the state machine
	go func() {
		defer cancel() // Ensure context is cancelled when goroutine exits

		// Execute the state machine
		result, err := stateMachine.Execute(asyncCtx, solveContext)

		// Update the solve context with the final result
		q.asyncSolvesMutex.Lock()
		if sc, exists := q.asyncSolves[solveID]; exists {
			sc.FinalResult = result
			if err != nil {
				if sc.CurrentState != StateCancelled {
					sc.SetError(err, string(sc.CurrentState))
				}
			} else {
				sc.Complete()
			}
		}
		q.asyncSolvesMutex.Unlock()

		// Publish completion event if event bus is available
		if q.config.EnableEventBus && q.eventBus != nil {
			eventType := eventbus.EventAsyncSolveSuccess
			metadata := map[string]interface{}{
				"solve_id":    solveID,
				"duration_ms": solveContext.GetTotalDuration().Milliseconds(),
			}

			if err != nil {
				eventType = eventbus.EventAsyncSolveFailure
				metadata["error"] = err.Error()
				metadata["error_stage"] = solveContext.ErrorStage
			}

			completionEvent := eventbus.NewEvent(
				eventType,
				question,
				"Quorum.SolveAsync",
				metadata,
			)
			// Use background context since original context might be done
			q.eventBus.Publish(context.Background(), completionEvent)
		}
	}()

	return solveID, nil
}

// GetAsyncStatus retrieves the current status of an async solve.
func (q *Quorum) GetAsyncStatus(solveID string) (*AsyncSolveStatus, error) {
	q.asyncSolvesMutex.RLock()
	defer q.asyncSolvesMutex.RUnlock()

	sc, exists := q.asyncSolves[solveID]
	if !exists {
		return nil, fmt.Errorf("solve with ID '%s' not found", solveID)
	}

	status := &AsyncSolveStatus{
		SolveID:      solveID,
		Question:     sc.Question,
		CurrentState: sc.CurrentState,
		Round:        sc.Round,
		StartTime:    sc.StartTime,
		Duration:     sc.GetTotalDuration(),
		IsComplete:   sc.CurrentState == StateComplete,
		HasError:     sc.CurrentState == StateError,
	}

	if sc.LastError != nil {
		status.ErrorMessage = sc.LastError.Error()
		status.ErrorStage = sc.ErrorStage
	}

	return status, nil
}

// GetAsyncResult retrieves the result of a completed async solve.
// Returns error if the solve is not complete or encountered an error.
func (q *Quorum) GetAsyncResult(solveID string) (*Result, error) {
	q.asyncSolvesMutex.RLock()
	defer q.asyncSolvesMutex.RUnlock()

	sc, exists := q.asyncSolves[solveID]
	if !exists {
		return nil, fmt.Errorf("solve with ID '%s' not found", solveID)
	}

	// Check if solve is complete
	if sc.CurrentState != StateComplete {
		if sc.CurrentState == StateError || sc.CurrentState == StateCancelled {
			// Return the original error stored in the context
			return nil, fmt.Errorf("solve failed during stage '%s': %w", sc.ErrorStage, sc.LastError)
		}
		return nil, fmt.Errorf("solve is still in progress (current state: %s)", sc.CurrentState)
	}

	if sc.LastError != nil {
		return nil, fmt.Errorf("solve completed but encountered an error during stage '%s': %w", sc.ErrorStage, sc.LastError)
	}

	return sc.FinalResult, nil
}

// CancelAsyncSolve cancels an ongoing async solve.
// Returns true if the solve was successfully cancelled, false if it was already complete or not found.
func (q *Quorum) CancelAsyncSolve(solveID string) (bool, error) {
	q.asyncSolvesMutex.Lock()
	defer q.asyncSolvesMutex.Unlock()

	sc, exists := q.asyncSolves[solveID]
	if !exists {
		return false, fmt.Errorf("solve with ID '%s' not found", solveID)
	}

	// Check if solve is already in a terminal state
	if sc.IsTerminal() {
		return false, nil
	}

	// Retrieve and call the cancel function
	if cancelFn, ok := sc.StateData["cancel"].(context.CancelFunc); ok {
		cancelFn()

		sc.SetCancelled(NewCancelledError(string(sc.CurrentState), nil), string(sc.CurrentState))

		// Publish cancellation event if event bus is available
		if q.config.EnableEventBus && q.eventBus != nil {
			cancelEvent := eventbus.NewEvent(
				eventbus.EventAsyncSolveCancelled,
				sc.Question,
				"Quorum.CancelAsyncSolve",
				map[string]interface{}{
					"solve_id":    solveID,
					"duration_ms": sc.GetTotalDuration().Milliseconds(),
				},
			)
			q.eventBus.Publish(context.Background(), cancelEvent)
		}

		return true, nil
	}

	return false, fmt.Errorf("cannot cancel solve: cancel function not found")
}

// ListAsyncSolves returns a list of all async solve IDs and their current states.
func (q *Quorum) ListAsyncSolves() map[string]string {
	q.asyncSolvesMutex.RLock()
	defer q.asyncSolvesMutex.RUnlock()

	result := make(map[string]string)
	for id, sc := range q.asyncSolves {
		result[id] = string(sc.CurrentState)
	}

	return result
}

// CleanupCompletedSolves removes completed or errored solves older than the specified duration.
// This helps prevent memory growth from storing too many completed solves.
func (q *Quorum) CleanupCompletedSolves(olderThan time.Duration) int {
	q.asyncSolvesMutex.Lock()
	defer q.asyncSolvesMutex.Unlock()

	now := time.Now()
	count := 0

	for id, sc := range q.asyncSolves {
		// Only cleanup solves that reached a terminal state
		if sc.IsTerminal() && now.Sub(sc.StateStartTimes[sc.CurrentState]) > olderThan {
			delete(q.asyncSolves, id)
			count++
		}
	}

	return count
}
