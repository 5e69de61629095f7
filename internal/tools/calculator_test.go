package tools

import (
	"context"
	"math"
	"testing"
)

func evaluate(t *testing.T, expression string) map[string]interface{} {
	t.Helper()
	result, err := PerformCalculation(context.Background(), map[string]interface{}{"expression": expression})
	if err != nil {
		t.Fatalf("PerformCalculation(%q) failed: %v", expression, err)
	}
	return result
}

func TestPerformCalculation(t *testing.T) {
	cases := []struct {
		expression string
		want       float64
	}{
		{"5*9", 45},
		{"(1+2)*3", 9},
		{"2 ** 3", 8},
		{"sqrt(144)", 12},
		{"max(1, 7, 3)", 7},
		{"pow(2, 10)", 1024},
		{"floor(3.9)", 3},
	}

	for _, tc := range cases {
		result := evaluate(t, tc.expression)
		if result["success"] != true {
			t.Errorf("%q: expected success, got %v", tc.expression, result["error"])
			continue
		}
		got, ok := result["result"].(float64)
		if !ok || math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%q = %v, want %v", tc.expression, result["result"], tc.want)
		}
	}
}

func TestPerformCalculationConstants(t *testing.T) {
	result := evaluate(t, "pi")
	got, ok := result["result"].(float64)
	if !ok || math.Abs(got-math.Pi) > 1e-9 {
		t.Errorf("pi = %v, want %v", result["result"], math.Pi)
	}
}

func TestPerformCalculationBadExpression(t *testing.T) {
	result := evaluate(t, "5 *")
	if result["success"] != false {
		t.Errorf("expected failure for malformed expression, got %v", result)
	}
	if result["error"] == nil {
		t.Error("expected an error message")
	}
}

func TestPerformCalculationUnknownFunction(t *testing.T) {
	result := evaluate(t, "launch_missiles(1)")
	if result["success"] != false {
		t.Errorf("expected failure for unknown function, got %v", result)
	}
}

func TestPerformCalculationMissingArgument(t *testing.T) {
	if _, err := PerformCalculation(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("expected error for missing expression argument")
	}
}
