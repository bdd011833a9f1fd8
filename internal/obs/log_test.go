package obs

import (
	"encoding/json"
	"testing"
)

func TestLogLineStampsService(t *testing.T) {
	line, err := logLine(map[string]any{"method": "GET", "path": "/v1/cases"})
	if err != nil {
		t.Fatalf("logLine: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["service"] != serviceName {
		t.Fatalf("service=%v, want %q", decoded["service"], serviceName)
	}
	if decoded["method"] != "GET" {
		t.Fatalf("method=%v, want GET", decoded["method"])
	}
}

func TestLogLineKeepsExplicitService(t *testing.T) {
	line, err := logLine(map[string]any{"service": "caseflow-seed"})
	if err != nil {
		t.Fatalf("logLine: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["service"] != "caseflow-seed" {
		t.Fatalf("service=%v, want caseflow-seed", decoded["service"])
	}
}
