package adapters

import (
	"context"
	"errors"
	"testing"
	"time"
)

func echoTool(_ context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"echo": input["msg"]}, nil
}

func TestGoToolAdapterExecute(t *testing.T) {
	adapter := NewGoToolAdapter("echo", echoTool)

	result, err := adapter.Execute(context.Background(), map[string]interface{}{"msg": "hi"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["echo"] != "hi" {
		t.Errorf("expected hi, got %v", result["echo"])
	}
}

func TestGoToolAdapterDefaultValidator(t *testing.T) {
	adapter := NewGoToolAdapter("echo", echoTool)

	if _, err := adapter.Execute(context.Background(), nil); err == nil {
		t.Error("expected error for nil input")
	}
}

func TestGoToolAdapterCustomValidator(t *testing.T) {
	adapter := NewGoToolAdapter("echo", echoTool,
		WithValidator(func(input map[string]interface{}) error {
			if _, ok := input["msg"]; !ok {
				return errors.New("msg is required")
			}
			return nil
		}),
	)

	if _, err := adapter.Execute(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("expected validation error for missing msg")
	}
	if _, err := adapter.Execute(context.Background(), map[string]interface{}{"msg": "ok"}); err != nil {
		t.Errorf("valid input should pass, got: %v", err)
	}
}

func TestGoToolAdapterSchemaOptions(t *testing.T) {
	adapter := NewGoToolAdapter("echo", echoTool,
		WithDescription("echoes its input"),
		WithCategory("debug"),
		WithParameters(map[string]string{"msg": "message to echo"}),
		WithReturns("the echoed message"),
		WithExamples([]string{`{"msg": "hi"}`}),
	)

	schema := adapter.Schema()
	if schema["name"] != "echo" {
		t.Errorf("expected name echo, got %v", schema["name"])
	}
	if schema["description"] != "echoes its input" {
		t.Errorf("unexpected description: %v", schema["description"])
	}
	if schema["category"] != "debug" {
		t.Errorf("unexpected category: %v", schema["category"])
	}
	if schema["returns"] != "the echoed message" {
		t.Errorf("unexpected returns: %v", schema["returns"])
	}
}

func TestGoToolAdapterTimeout(t *testing.T) {
	adapter := NewGoToolAdapter("echo", echoTool)
	if adapter.Timeout() != DefaultToolTimeout {
		t.Errorf("expected default timeout, got %v", adapter.Timeout())
	}

	custom := NewGoToolAdapter("echo", echoTool, WithTimeout(2*time.Second))
	if custom.Timeout() != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", custom.Timeout())
	}
}

func TestGoToolAdapterNilFunc(t *testing.T) {
	adapter := NewGoToolAdapter("broken", nil)
	if _, err := adapter.Execute(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("expected error for nil tool function")
	}
}
