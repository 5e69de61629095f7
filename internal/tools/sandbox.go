package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// DefaultMaxOutputLines caps the sandbox output forwarded to the verifier.
const DefaultMaxOutputLines = 100

// forbiddenPatterns reject code that escapes the sandbox's capability model.
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bos\.`),
	regexp.MustCompile(`\bsubprocess\.`),
	regexp.MustCompile(`\bsys\.`),
	regexp.MustCompile(`\bopen\(`),
	regexp.MustCompile(`\bexec\(`),
	regexp.MustCompile(`\beval\(`),
	regexp.MustCompile(`__import__\(`),
	regexp.MustCompile(`\bcompile\(`),
	regexp.MustCompile(`\bglobals\(`),
	regexp.MustCompile(`\blocals\(`),
	regexp.MustCompile(`\bsetattr\(`),
	regexp.MustCompile(`\bdelattr\(`),
}

// importPattern extracts the module of each import statement for allowlist
// checking.
var importPattern = regexp.MustCompile(`(?m)^\s*(?:from|import)\s+(\w+)`)

// CodeSandbox executes Python snippets in a subprocess with a static safety
// check up front. The caller bounds wall-clock time through the context.
type CodeSandbox struct {
	pythonPath     string
	maxOutputLines int
	allowedImports map[string]bool
}

// SandboxOption configures a CodeSandbox.
type SandboxOption func(*CodeSandbox)

// WithPythonPath overrides the python interpreter binary.
func WithPythonPath(path string) SandboxOption {
	return func(s *CodeSandbox) {
		s.pythonPath = path
	}
}

// WithMaxOutputLines caps the number of stdout lines returned.
func WithMaxOutputLines(n int) SandboxOption {
	return func(s *CodeSandbox) {
		s.maxOutputLines = n
	}
}

// WithAllowedImports replaces the import allowlist.
func WithAllowedImports(modules []string) SandboxOption {
	return func(s *CodeSandbox) {
		s.allowedImports = make(map[string]bool, len(modules))
		for _, m := range modules {
			s.allowedImports[m] = true
		}
	}
}

// NewCodeSandbox creates a sandbox with the default interpreter and the
// stdlib math allowlist.
func NewCodeSandbox(options ...SandboxOption) *CodeSandbox {
	s := &CodeSandbox{
		pythonPath:     "python3",
		maxOutputLines: DefaultMaxOutputLines,
		allowedImports: map[string]bool{
			"math":       true,
			"statistics": true,
			"itertools":  true,
			"functools":  true,
		},
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Run executes the given code and returns a structured result.
// It expects an argument named "code" containing the snippet string.
func (s *CodeSandbox) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	code, ok := input["code"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid or missing code argument (expected string at key 'code')")
	}

	if reason := s.validate(code); reason != "" {
		return map[string]interface{}{
			"success": false,
			"output":  "",
			"error":   fmt.Sprintf("code validation failed: %s", reason),
		}, nil
	}

	codeFile, err := os.CreateTemp("", "sandbox-*.py")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(codeFile.Name())

	if _, err := codeFile.WriteString(code); err != nil {
		codeFile.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	codeFile.Close()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.pythonPath, codeFile.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() != nil {
		return map[string]interface{}{
			"success": false,
			"output":  "",
			"error":   "execution timed out",
		}, nil
	}

	returnCode := -1
	if cmd.ProcessState != nil {
		returnCode = cmd.ProcessState.ExitCode()
	}

	output := s.capOutput(stdout.String())
	result := map[string]interface{}{
		"success":     runErr == nil,
		"output":      output,
		"return_code": returnCode,
	}

	if stderr.Len() > 0 {
		result["error"] = stderr.String()
	} else if runErr != nil {
		result["error"] = runErr.Error()
	}

	return result, nil
}

// validate returns a non-empty reason when the code must not run.
func (s *CodeSandbox) validate(code string) string {
	for _, pattern := range forbiddenPatterns {
		if pattern.MatchString(code) {
			return fmt.Sprintf("forbidden pattern detected: %s", pattern.String())
		}
	}

	for _, match := range importPattern.FindAllStringSubmatch(code, -1) {
		if !s.allowedImports[match[1]] {
			return fmt.Sprintf("import of module '%s' not allowed", match[1])
		}
	}

	return ""
}

// capOutput truncates overly long stdout, noting how much was dropped.
func (s *CodeSandbox) capOutput(output string) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= s.maxOutputLines {
		return output
	}
	kept := strings.Join(lines[:s.maxOutputLines], "\n")
	return fmt.Sprintf("%s\n... (%d more lines)", kept, len(lines)-s.maxOutputLines)
}
