package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// calculatorFunctions whitelists the math functions available in expressions.
var calculatorFunctions = map[string]govaluate.ExpressionFunction{
	"sqrt":  unaryMathFunc(math.Sqrt),
	"sin":   unaryMathFunc(math.Sin),
	"cos":   unaryMathFunc(math.Cos),
	"tan":   unaryMathFunc(math.Tan),
	"log":   unaryMathFunc(math.Log),
	"log10": unaryMathFunc(math.Log10),
	"exp":   unaryMathFunc(math.Exp),
	"ceil":  unaryMathFunc(math.Ceil),
	"floor": unaryMathFunc(math.Floor),
	"abs":   unaryMathFunc(math.Abs),
	"round": unaryMathFunc(math.Round),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		base, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		exponent, err := toFloat(args[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(base, exponent), nil
	},
	"min": variadicMathFunc("min", math.Min),
	"max": variadicMathFunc("max", math.Max),
}

// calculatorConstants are the named values available in expressions.
var calculatorConstants = map[string]interface{}{
	"pi": math.Pi,
	"e":  math.E,
}

func toFloat(v interface{}) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("expected numeric argument, got %T", v)
	}
	return f, nil
}

func unaryMathFunc(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		f, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(f), nil
	}
}

func variadicMathFunc(name string, fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s expects at least 1 argument", name)
		}
		acc, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		for _, arg := range args[1:] {
			f, err := toFloat(arg)
			if err != nil {
				return nil, err
			}
			acc = fn(acc, f)
		}
		return acc, nil
	}
}

// PerformCalculation safely evaluates a mathematical expression.
// It expects an argument named "expression" containing the expression string.
func PerformCalculation(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	expression, ok := input["expression"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid or missing expression argument (expected string at key 'expression')")
	}

	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, calculatorFunctions)
	if err != nil {
		return map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"expression": expression,
		}, nil
	}

	result, err := expr.Evaluate(calculatorConstants)
	if err != nil {
		return map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"expression": expression,
		}, nil
	}

	return map[string]interface{}{
		"success":    true,
		"result":     result,
		"output":     fmt.Sprintf("%v", result),
		"expression": expression,
	}, nil
}
