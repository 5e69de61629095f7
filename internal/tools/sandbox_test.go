package tools

import (
	"context"
	"strings"
	"testing"
)

func TestSandboxRejectsForbiddenPatterns(t *testing.T) {
	s := NewCodeSandbox()

	cases := []string{
		"import os\nprint(os.getcwd())",
		"import subprocess\nsubprocess.run(['ls'])",
		"open('/etc/passwd').read()",
		"eval('1+1')",
		"exec('print(1)')",
		"__import__('os')",
		"globals()['x'] = 1",
	}

	for _, code := range cases {
		result, err := s.Run(context.Background(), map[string]interface{}{"code": code})
		if err != nil {
			t.Fatalf("Run(%q) failed: %v", code, err)
		}
		if result["success"] != false {
			t.Errorf("expected %q to be rejected", code)
		}
		errMsg, _ := result["error"].(string)
		if !strings.Contains(errMsg, "code validation failed") {
			t.Errorf("expected validation error for %q, got %q", code, errMsg)
		}
	}
}

func TestSandboxImportAllowlist(t *testing.T) {
	s := NewCodeSandbox()

	if reason := s.validate("import math\nprint(math.pi)"); reason != "" {
		t.Errorf("math import should be allowed, got: %s", reason)
	}
	if reason := s.validate("from functools import reduce"); reason != "" {
		t.Errorf("functools import should be allowed, got: %s", reason)
	}
	if reason := s.validate("import requests"); reason == "" {
		t.Error("requests import should be rejected")
	}

	custom := NewCodeSandbox(WithAllowedImports([]string{"json"}))
	if reason := custom.validate("import math"); reason == "" {
		t.Error("math import should be rejected with a custom allowlist")
	}
}

func TestSandboxMissingCodeArgument(t *testing.T) {
	s := NewCodeSandbox()
	if _, err := s.Run(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("expected error for missing code argument")
	}
}

func TestSandboxCapOutput(t *testing.T) {
	s := NewCodeSandbox(WithMaxOutputLines(3))

	short := "a\nb\nc"
	if got := s.capOutput(short); got != short {
		t.Errorf("short output should pass through, got %q", got)
	}

	long := "1\n2\n3\n4\n5\n6"
	got := s.capOutput(long)
	if !strings.HasPrefix(got, "1\n2\n3\n") {
		t.Errorf("unexpected capped output: %q", got)
	}
	if !strings.Contains(got, "(3 more lines)") {
		t.Errorf("expected truncation note, got %q", got)
	}
}

func TestValidateReadOnly(t *testing.T) {
	cases := []struct {
		query string
		ok    bool
	}{
		{"SELECT * FROM users", true},
		{"  select count(*) from events  ", true},
		{"WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"DELETE FROM users", false},
		{"UPDATE users SET name = 'x'", false},
		{"DROP TABLE users", false},
	}

	for _, tc := range cases {
		reason := validateReadOnly(tc.query)
		if tc.ok && reason != "" {
			t.Errorf("query %q should be allowed, got: %s", tc.query, reason)
		}
		if !tc.ok && reason == "" {
			t.Errorf("query %q should be rejected", tc.query)
		}
	}
}

func TestSetupToolsRegistry(t *testing.T) {
	toolSet := SetupTools(nil)

	for _, name := range []string{"calculate", "code_sandbox"} {
		tool, ok := toolSet[name]
		if !ok {
			t.Fatalf("missing tool %q", name)
		}
		if tool.Name() != name {
			t.Errorf("tool %q reports name %q", name, tool.Name())
		}
		if tool.Timeout() <= 0 {
			t.Errorf("tool %q has no timeout", name)
		}
		if _, ok := tool.Schema()["description"].(string); !ok {
			t.Errorf("tool %q has no description", name)
		}
	}

	// Without a database pool there is no sql_reader.
	if _, ok := toolSet["sql_reader"]; ok {
		t.Error("sql_reader should not be registered without a database pool")
	}
}
