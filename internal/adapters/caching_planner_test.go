package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/quorumlabs/quorum-genkit"
)

type countingPlanner struct {
	calls int
	plan  *quorum.ExecutionPlan
	err   error
}

func (p *countingPlanner) GeneratePlan(_ context.Context, _ quorum.PlannerInput) (*quorum.ExecutionPlan, error) {
	p.calls++
	return p.plan, p.err
}

type mapCache struct {
	items  map[string]interface{}
	setErr error
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]interface{})}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, error) {
	v, ok := c.items[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.items[key] = value
	return nil
}

func testPlan() *quorum.ExecutionPlan {
	return &quorum.ExecutionPlan{
		Strategy:             "work it out",
		Complexity:           quorum.ComplexityMedium,
		SuggestedSolverCount: 3,
	}
}

func TestCachingPlannerHit(t *testing.T) {
	inner := &countingPlanner{plan: testPlan()}
	planner := NewCachingPlanner(inner, newMapCache())
	input := quorum.PlannerInput{Question: "what is 2+2?"}

	first, err := planner.GeneratePlan(context.Background(), input)
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	second, err := planner.GeneratePlan(context.Background(), input)
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("expected one inner call, got %d", inner.calls)
	}
	if first != second {
		t.Error("expected the cached plan on the second call")
	}
}

func TestCachingPlannerKeyIgnoresContext(t *testing.T) {
	inner := &countingPlanner{plan: testPlan()}
	planner := NewCachingPlanner(inner, newMapCache())

	if _, err := planner.GeneratePlan(context.Background(), quorum.PlannerInput{Question: "q", Context: "first"}); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}
	if _, err := planner.GeneratePlan(context.Background(), quorum.PlannerInput{Question: "q", Context: "second"}); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("context should not affect the cache key, got %d inner calls", inner.calls)
	}
}

func TestCachingPlannerKeyIncludesTools(t *testing.T) {
	inner := &countingPlanner{plan: testPlan()}
	planner := NewCachingPlanner(inner, newMapCache())

	withCalc := quorum.PlannerInput{
		Question:   "q",
		ToolSchema: map[string]map[string]interface{}{"calculate": {}},
	}
	if _, err := planner.GeneratePlan(context.Background(), withCalc); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}
	if _, err := planner.GeneratePlan(context.Background(), quorum.PlannerInput{Question: "q"}); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if inner.calls != 2 {
		t.Errorf("tool set should affect the cache key, got %d inner calls", inner.calls)
	}
}

func TestCachingPlannerToleratesSetFailure(t *testing.T) {
	inner := &countingPlanner{plan: testPlan()}
	cache := newMapCache()
	cache.setErr = errors.New("disk full")
	planner := NewCachingPlanner(inner, cache)

	plan, err := planner.GeneratePlan(context.Background(), quorum.PlannerInput{Question: "q"})
	if err != nil {
		t.Fatalf("GeneratePlan should not fail on cache errors: %v", err)
	}
	if plan != inner.plan {
		t.Error("expected the freshly generated plan")
	}
}

func TestCachingPlannerPropagatesPlannerError(t *testing.T) {
	inner := &countingPlanner{err: errors.New("model down")}
	planner := NewCachingPlanner(inner, newMapCache())

	if _, err := planner.GeneratePlan(context.Background(), quorum.PlannerInput{Question: "q"}); err == nil {
		t.Error("expected planner error to propagate")
	}
}
