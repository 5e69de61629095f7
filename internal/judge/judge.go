// Package judge implements deterministic candidate selection. No generation
// calls happen here: the judge only compares scores already assigned by the
// verifier.
package judge

import (
	"log"

	"github.com/quorumlabs/quorum-genkit"
)

// ScoreJudge implements the quorum.Judge interface by ranking solutions on
// (score, confidence), both descending.
type ScoreJudge struct{}

// NewScoreJudge creates a score-based judge.
func NewScoreJudge() *ScoreJudge {
	return &ScoreJudge{}
}

// Select implements the quorum.Judge interface.
//
// Selection is a single max scan rather than a sort: ties on both score and
// confidence resolve to the earliest solution in the slice, which keeps the
// judge deterministic for identical inputs.
func (j *ScoreJudge) Select(solutions []*quorum.Solution) (*quorum.Solution, error) {
	if len(solutions) == 0 {
		return nil, quorum.NewNoCandidatesError("judging")
	}

	best := solutions[0]
	for _, s := range solutions[1:] {
		if s.Score > best.Score ||
			(s.Score == best.Score && s.Confidence > best.Confidence) {
			best = s
		}
	}

	log.Printf("Judge selected: solver %d (score: %.2f, confidence: %.2f)",
		best.SolverID, best.Score, best.Confidence)

	return best, nil
}
