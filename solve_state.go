package quorum

import (
	"context"
	"fmt"
	"time"

	"github.com/quorumlabs/quorum-genkit/internal/eventbus"
)

// SolveState represents the current state of a solve execution.
type SolveState string

const (
	// StateInit is the initial state of the solve
	StateInit SolveState = "init"
	// StatePlanning represents the planning phase
	StatePlanning SolveState = "planning"
	// StateSolving represents the parallel solver generation phase of a round
	StateSolving SolveState = "solving"
	// StateVerifying represents the in-order verification scan of a round
	StateVerifying SolveState = "verifying"
	// StateJudging represents candidate selection over scored solutions
	StateJudging SolveState = "judging"
	// StateError represents an error state
	StateError SolveState = "error"
	// StateComplete represents the completed state
	StateComplete SolveState = "complete"
	// StateCancelled represents the cancelled state
	StateCancelled SolveState = "cancelled"
	// StateUnknown is used when the status of an async solve cannot be determined.
	StateUnknown SolveState = "unknown"
)

// SolveContext contains the data needed for one solve execution.
// It acts as the "tape" the state machine reads and writes.
type SolveContext struct {
	// Input parameters
	Question            string
	Context             string
	ForceMultiCandidate bool

	// Intermediate results
	Plan       *ExecutionPlan
	SimplePath bool
	Round      int

	// RoundSolutions holds the current round's solutions; AllSolutions
	// accumulates every solution ever generated across rounds.
	RoundSolutions []*Solution
	AllSolutions   []*Solution

	// Outcome
	Best        *Solution
	Method      string
	FinalResult *Result

	// Error handling
	LastError  error
	ErrorStage string

	// State management
	CurrentState SolveState
	StateStack   []SolveState
	StateData    map[string]interface{}

	// Timestamp tracking
	StartTime       time.Time
	EndTime         time.Time
	StateStartTimes map[SolveState]time.Time
}

// NewSolveContext creates a new solve context for the given question.
func NewSolveContext(question, supportingContext string, forceMultiCandidate bool) *SolveContext {
	return &SolveContext{
		Question:            question,
		Context:             supportingContext,
		ForceMultiCandidate: forceMultiCandidate,
		CurrentState:        StateInit,
		StateStack:          []SolveState{},
		StateData:           make(map[string]interface{}),
		StartTime:           time.Now(),
		StateStartTimes:     make(map[SolveState]time.Time),
	}
}

// PushState pushes the current state onto the stack and sets a new current state.
func (sc *SolveContext) PushState(state SolveState) {
	sc.StateStack = append(sc.StateStack, sc.CurrentState)
	sc.CurrentState = state
	sc.StateStartTimes[state] = time.Now()
}

// PopState pops the top state from the stack and sets it as the current state.
// Returns false if the stack is empty.
func (sc *SolveContext) PopState() bool {
	if len(sc.StateStack) == 0 {
		return false
	}
	lastIdx := len(sc.StateStack) - 1
	sc.CurrentState = sc.StateStack[lastIdx]
	sc.StateStack = sc.StateStack[:lastIdx]
	sc.StateStartTimes[sc.CurrentState] = time.Now()
	return true
}

// IsTerminal checks if the current state is a terminal state (Complete, Error, Cancelled).
func (sc *SolveContext) IsTerminal() bool {
	return sc.CurrentState == StateComplete || sc.CurrentState == StateError || sc.CurrentState == StateCancelled
}

// SetError sets the last error and error stage, transitioning to StateError.
func (sc *SolveContext) SetError(err error, stage string) {
	sc.LastError = err
	sc.ErrorStage = stage
	sc.CurrentState = StateError
	sc.StateStartTimes[StateError] = time.Now()
}

// SetCancelled sets the state to Cancelled and records the cancellation error.
func (sc *SolveContext) SetCancelled(err error, stage string) {
	sc.LastError = err
	sc.ErrorStage = stage
	sc.CurrentState = StateCancelled
	sc.StateStartTimes[StateCancelled] = time.Now()
}

// Complete marks the solve as complete and sets the end time.
func (sc *SolveContext) Complete() {
	sc.CurrentState = StateComplete
	sc.EndTime = time.Now()
	sc.StateStartTimes[StateComplete] = sc.EndTime
}

// GetStateDuration returns the duration spent in the given state so far.
func (sc *SolveContext) GetStateDuration(state SolveState) time.Duration {
	startTime, ok := sc.StateStartTimes[state]
	if !ok {
		return 0
	}

	if state == sc.CurrentState {
		return time.Since(startTime)
	}

	// Past states would need per-state end times; callers only ask about the
	// current state in practice.
	return 0
}

// GetTotalDuration returns the total duration of the solve so far.
func (sc *SolveContext) GetTotalDuration() time.Duration {
	if sc.CurrentState == StateComplete {
		return sc.EndTime.Sub(sc.StartTime)
	}
	return time.Since(sc.StartTime)
}

// SolutionSummaries returns one envelope row per generated solution, in
// generation order.
func (sc *SolveContext) SolutionSummaries() []SolutionSummary {
	summaries := make([]SolutionSummary, 0, len(sc.AllSolutions))
	for _, s := range sc.AllSolutions {
		summaries = append(summaries, s.Summary())
	}
	return summaries
}

// StateTransition defines a transition function for the state machine.
type StateTransition func(ctx context.Context, eventBus eventbus.EventBus, sc *SolveContext) (SolveState, error)

// StateMachine represents a finite state machine for solve execution.
type StateMachine struct {
	transitions map[SolveState]StateTransition
	eventBus    eventbus.EventBus
}

// NewStateMachine creates a new state machine with the provided transitions.
func NewStateMachine(eventBus eventbus.EventBus) *StateMachine {
	return &StateMachine{
		transitions: make(map[SolveState]StateTransition),
		eventBus:    eventBus,
	}
}

// RegisterTransition registers a state transition function.
func (sm *StateMachine) RegisterTransition(state SolveState, transition StateTransition) {
	sm.transitions[state] = transition
}

// Execute runs the state machine until completion or error.
func (sm *StateMachine) Execute(ctx context.Context, sc *SolveContext) (*Result, error) {
	for !sc.IsTerminal() {
		// Check for context cancellation before executing the next state
		select {
		case <-ctx.Done():
			err := ctx.Err()
			currentStage := string(sc.CurrentState)
			sc.SetCancelled(err, currentStage)
			return nil, err
		default:
		}

		transition, exists := sm.transitions[sc.CurrentState]
		if !exists {
			err := fmt.Errorf("no transition defined for state: %s", sc.CurrentState)
			currentStage := string(sc.CurrentState)
			sc.SetError(err, currentStage)
			return nil, err
		}

		nextState, err := transition(ctx, sm.eventBus, sc)

		if err != nil {
			currentStage := string(sc.CurrentState)
			// Check if the error is due to context cancellation (might be
			// caught within the transition)
			if err == context.Canceled || err == context.DeadlineExceeded {
				sc.SetCancelled(err, currentStage)
			} else {
				// Transitions usually call SetError themselves; cover the
				// case where one returns an error without setting state.
				if !sc.IsTerminal() {
					sc.SetError(err, currentStage)
				}
			}
			continue
		}

		// Update the current state if it wasn't changed by SetError/SetCancelled
		if !sc.IsTerminal() {
			sc.CurrentState = nextState
			sc.StateStartTimes[nextState] = time.Now()
		}
	}

	return sc.FinalResult, sc.LastError
}
