// Package tools provides the verifier tool set: a safe calculator, a
// sandboxed Python runner and a read-only SQL reader.
package tools

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quorumlabs/quorum-genkit"
	"github.com/quorumlabs/quorum-genkit/internal/adapters"
)

// SetupTools creates and returns a map of all available tools.
// The SQL reader is only registered when a database pool is provided.
func SetupTools(dbPool *pgxpool.Pool) map[string]quorum.Tool {
	sandbox := NewCodeSandbox()

	toolSet := map[string]quorum.Tool{
		"calculate": adapters.NewGoToolAdapter(
			"calculate",
			PerformCalculation,
			adapters.WithDescription("Calculates a mathematical expression."),
			adapters.WithCategory("Math"),
			adapters.WithParameters(map[string]string{
				"expression": "Mathematical expression to evaluate (e.g., 'sqrt(2) * 5')",
			}),
			adapters.WithReturns("Calculation result as a number."),
			adapters.WithExamples([]string{
				`calculate {"expression": "5*9"}`,
				`calculate {"expression": "sqrt(144) + pi"}`,
			}),
			adapters.WithValidator(validateCalculationInput),
			adapters.WithTimeout(2*time.Second),
		),
		"code_sandbox": adapters.NewGoToolAdapter(
			"code_sandbox",
			sandbox.Run,
			adapters.WithDescription("Executes a Python snippet in a restricted sandbox."),
			adapters.WithCategory("Code"),
			adapters.WithParameters(map[string]string{
				"code": "Python source to execute",
			}),
			adapters.WithReturns("Captured stdout plus success flag and return code."),
			adapters.WithExamples([]string{
				`code_sandbox {"code": "print(sum(range(10)))"}`,
			}),
			adapters.WithValidator(validateCodeInput),
			adapters.WithTimeout(5*time.Second),
		),
	}

	if dbPool != nil {
		reader := NewPostgresReader(dbPool)
		toolSet["sql_reader"] = adapters.NewGoToolAdapter(
			"sql_reader",
			reader.Query,
			adapters.WithDescription("Runs a read-only SQL query against the reference database."),
			adapters.WithCategory("Data"),
			adapters.WithParameters(map[string]string{
				"query": "SELECT statement to execute",
			}),
			adapters.WithReturns("Result rows as a list of column/value maps."),
			adapters.WithExamples([]string{
				`sql_reader {"query": "SELECT count(*) FROM events"}`,
			}),
			adapters.WithValidator(validateSQLInput),
			adapters.WithTimeout(10*time.Second),
		)
	}

	return toolSet
}

// Validator functions for tools

// validateCalculationInput validates the input for the calculate tool.
func validateCalculationInput(input map[string]interface{}) error {
	expr, ok := input["expression"]
	if !ok {
		return fmt.Errorf("missing expression (expected at key 'expression')")
	}

	exprStr, ok := expr.(string)
	if !ok {
		return fmt.Errorf("expression must be a string, got %T", expr)
	}

	if len(exprStr) == 0 {
		return fmt.Errorf("expression cannot be empty")
	}

	if len(exprStr) > 200 {
		return fmt.Errorf("expression too long (max 200 characters)")
	}

	return nil
}

// validateCodeInput validates the input for the code_sandbox tool.
func validateCodeInput(input map[string]interface{}) error {
	code, ok := input["code"]
	if !ok {
		return fmt.Errorf("missing code (expected at key 'code')")
	}

	codeStr, ok := code.(string)
	if !ok {
		return fmt.Errorf("code must be a string, got %T", code)
	}

	if len(codeStr) == 0 {
		return fmt.Errorf("code cannot be empty")
	}

	if len(codeStr) > 10000 {
		return fmt.Errorf("code too long (max 10000 characters)")
	}

	return nil
}

// validateSQLInput validates the input for the sql_reader tool.
func validateSQLInput(input map[string]interface{}) error {
	query, ok := input["query"]
	if !ok {
		return fmt.Errorf("missing query (expected at key 'query')")
	}

	queryStr, ok := query.(string)
	if !ok {
		return fmt.Errorf("query must be a string, got %T", query)
	}

	if len(queryStr) == 0 {
		return fmt.Errorf("query cannot be empty")
	}

	return nil
}
