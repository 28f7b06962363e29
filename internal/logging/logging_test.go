package logging

import "testing"

func TestRedactTopLevel(t *testing.T) {
	out := Redact("botToken", "xoxb-secret", "chat", "123")
	if out[1] != redactedValue {
		t.Fatalf("expected botToken redacted, got %v", out[1])
	}
	if out[3] != "123" {
		t.Fatalf("expected chat untouched, got %v", out[3])
	}
}

func TestRedactNestedMap(t *testing.T) {
	nested := map[string]any{
		"apiKey": "sk-abc",
		"nested": map[string]any{
			"password": "hunter2",
			"other":    "ok",
		},
	}
	out := Redact("config", nested)
	got, ok := out[1].(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", out[1])
	}
	if got["apiKey"] != redactedValue {
		t.Fatalf("expected apiKey redacted, got %v", got["apiKey"])
	}
	innerMap, ok := got["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map, got %T", got["nested"])
	}
	if innerMap["password"] != redactedValue {
		t.Fatalf("expected nested password redacted, got %v", innerMap["password"])
	}
	if innerMap["other"] != "ok" {
		t.Fatalf("expected nested other untouched, got %v", innerMap["other"])
	}
}
