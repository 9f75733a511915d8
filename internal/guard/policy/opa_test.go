package policy

import (
	"context"
	"testing"
	"time"

	"github.com/jcs-corp/jcs-assistant/internal/config"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

func testCfg() func() config.PolicyFilterConfig {
	return func() config.PolicyFilterConfig {
		return config.PolicyFilterConfig{
			Enabled:           true,
			EvaluationTimeout: 100 * time.Millisecond,
		}
	}
}

const defaultPolicy = `
package assistant.policy

import rego.v1

default allow := true
default reason := ""

deny contains msg if {
	input.request.file_count > 5
	msg := "too many files in one request"
}

deny contains msg if {
	some ext in input.request.extensions
	ext == ".bmp"
	input.user.org == "org-legal"
	msg := "org-legal may not upload bitmap scans"
}

allow := false if {
	count(deny) > 0
}

reason := concat("; ", deny) if {
	count(deny) > 0
}
`

func loadTestEvaluator(t *testing.T, policy string) *Evaluator {
	t.Helper()
	e := NewEvaluator(testCfg())
	if err := e.LoadFromModules(map[string]string{"test.rego": policy}); err != nil {
		t.Fatalf("failed to load policy: %v", err)
	}
	return e
}

func TestEvaluator_AllowByDefault(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, reason, err := e.Evaluate(context.Background(), Input{
		User:    User{ID: "user-1", Org: "org-1", Team: "team-1"},
		Request: Request{TaskHint: "file_qa", FileCount: 2, Extensions: []string{".pdf"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Errorf("expected allowed, got denied: %s", reason)
	}
}

func TestEvaluator_DenyTooManyFiles(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, reason, err := e.Evaluate(context.Background(), Input{
		User:    User{ID: "user-1", Org: "org-1"},
		Request: Request{FileCount: 6},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("expected denial for too many files")
	}
	if reason == "" {
		t.Error("expected a denial reason")
	}
}

func TestEvaluator_DenyByOrgAndExtension(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, _, err := e.Evaluate(context.Background(), Input{
		User:    User{ID: "user-1", Org: "org-legal"},
		Request: Request{FileCount: 1, Extensions: []string{".bmp"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("expected denial for org-legal bitmap upload")
	}
}

func TestEvaluator_NoPoliciesLoadedFailsClosed(t *testing.T) {
	e := NewEvaluator(testCfg())

	allowed, reason, err := e.Evaluate(context.Background(), Input{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("expected fail-closed denial with no policies loaded")
	}
	if reason != "no policies loaded" {
		t.Errorf("unexpected reason %q", reason)
	}
}

func TestCheck_DisabledAllows(t *testing.T) {
	e := NewEvaluator(func() config.PolicyFilterConfig {
		return config.PolicyFilterConfig{Enabled: false}
	})

	allowed, reason := e.Check(context.Background(), &types.ChatRequest{UserID: "u"})
	if !allowed || reason != "" {
		t.Errorf("disabled evaluator must allow: %v %q", allowed, reason)
	}
}

func TestCheck_BuildsRequestInput(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	req := &types.ChatRequest{
		UserID:         "user-1",
		OrganizationID: "org-legal",
		Files: []types.FileRef{
			{Filename: "scan.BMP"},
		},
	}
	allowed, reason := e.Check(context.Background(), req)
	if allowed {
		t.Error("expected denial via lowered extension from request files")
	}
	if reason == "" {
		t.Error("expected a denial reason")
	}
}
