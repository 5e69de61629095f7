package adapters

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log"
	"sort"

	"github.com/quorumlabs/quorum-genkit"
)

// CachingPlanner wraps a Planner with a cache keyed on the question and the
// registered tool set. Plans are deterministic enough to reuse: the strategy
// text varies between calls, but reusing a cached plan is always safe because
// every solver receives the same plan anyway.
type CachingPlanner struct {
	inner quorum.Planner
	cache quorum.Cache
}

// NewCachingPlanner creates a caching wrapper around the given planner.
func NewCachingPlanner(inner quorum.Planner, cache quorum.Cache) *CachingPlanner {
	return &CachingPlanner{
		inner: inner,
		cache: cache,
	}
}

// GeneratePlan implements the quorum.Planner interface.
func (p *CachingPlanner) GeneratePlan(ctx context.Context, input quorum.PlannerInput) (*quorum.ExecutionPlan, error) {
	cacheKey := p.generateCacheKey(input)

	// Try fetching from cache
	if cached, err := p.cache.Get(ctx, cacheKey); err == nil {
		if plan, ok := cached.(*quorum.ExecutionPlan); ok {
			return plan, nil
		}
	}

	plan, err := p.inner.GeneratePlan(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, cacheKey, plan); err != nil {
		// Cache failures never fail the solve
		log.Printf("Failed to cache execution plan: %v", err)
	}

	return plan, nil
}

// generateCacheKey creates a unique key for caching planner results.
// The supporting context is deliberately excluded: it changes per request
// while the plan shape depends on the question and available tools.
func (p *CachingPlanner) generateCacheKey(input quorum.PlannerInput) string {
	toolNames := make([]string, 0, len(input.ToolSchema))
	for name := range input.ToolSchema {
		toolNames = append(toolNames, name)
	}
	sort.Strings(toolNames)

	cacheableInput := struct {
		Question  string   `json:"question"`
		ToolNames []string `json:"tool_names"`
	}{
		Question:  input.Question,
		ToolNames: toolNames,
	}

	inputBytes, err := json.Marshal(cacheableInput)
	if err != nil {
		log.Printf("Failed to marshal planner input for cache key: %v", err)
		// Fallback to a simpler key if marshalling fails
		return "planner:" + input.Question
	}

	hasher := sha1.New()
	hasher.Write(inputBytes)
	return "planner:" + hex.EncodeToString(hasher.Sum(nil))
}
