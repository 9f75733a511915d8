// Package policy evaluates organization upload and task policies with OPA.
// Policies decide, before any external call, whether this caller may submit
// this kind of request at all (task hint, upload count and formats,
// time-of-day windows).
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/rego"

	"github.com/jcs-corp/jcs-assistant/internal/config"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

// Input is the data sent to OPA for evaluation.
type Input struct {
	User    User    `json:"user"`
	Request Request `json:"request"`
	Time    Clock   `json:"time"`
}

type User struct {
	ID   string `json:"id"`
	Org  string `json:"org"`
	Team string `json:"team"`
}

type Request struct {
	TaskHint   string   `json:"task_hint"`
	FileCount  int      `json:"file_count"`
	Extensions []string `json:"extensions"`
}

type Clock struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

// Evaluator runs compiled rego policies against request metadata.
type Evaluator struct {
	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
	cfg      func() config.PolicyFilterConfig
}

// NewEvaluator creates a policy evaluator. Call Load() to compile policies.
func NewEvaluator(cfg func() config.PolicyFilterConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

func (e *Evaluator) Enabled() bool { return e.cfg().Enabled }

// Load compiles rego modules from the bundle path.
func (e *Evaluator) Load() error {
	cfg := e.cfg()
	modules, err := LoadRegoFiles(cfg.BundlePath)
	if err != nil {
		return fmt.Errorf("load rego files: %w", err)
	}
	if len(modules) == 0 {
		slog.Warn("no rego files found", "path", cfg.BundlePath)
		return nil
	}
	return e.prepare(modules)
}

// LoadFromModules compiles policies from provided module sources (useful for testing).
func (e *Evaluator) LoadFromModules(modules map[string]string) error {
	return e.prepare(modules)
}

func (e *Evaluator) prepare(modules map[string]string) error {
	opts := []func(*rego.Rego){
		rego.Query("[data.assistant.policy.allow, data.assistant.policy.reason]"),
	}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("prepare rego: %w", err)
	}

	e.mu.Lock()
	e.prepared = &prepared
	e.mu.Unlock()

	slog.Info("policies loaded", "modules", len(modules))
	return nil
}

// Evaluate runs the policy against the given input. Fails closed: no loaded
// policy or an evaluation error denies the request.
func (e *Evaluator) Evaluate(ctx context.Context, input Input) (bool, string, error) {
	e.mu.RLock()
	prepared := e.prepared
	e.mu.RUnlock()

	if prepared == nil {
		return false, "no policies loaded", nil
	}

	cfg := e.cfg()
	timeout := cfg.EvaluationTimeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}

	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := prepared.Eval(evalCtx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Sprintf("policy evaluation error: %v", err), err
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, "no policy result", nil
	}

	arr, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok || len(arr) < 2 {
		return false, "unexpected policy result format", nil
	}

	allowed, _ := arr[0].(bool)
	reason, _ := arr[1].(string)

	return allowed, reason, nil
}

// Check builds the policy input for a request and evaluates it. Returns
// (true, "") when the evaluator is disabled.
func (e *Evaluator) Check(ctx context.Context, req *types.ChatRequest) (bool, string) {
	if !e.Enabled() {
		return true, ""
	}

	exts := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		exts = append(exts, f.Ext())
	}

	now := time.Now().UTC()
	input := Input{
		User: User{
			ID:   req.UserID,
			Org:  req.OrganizationID,
			Team: req.TeamID,
		},
		Request: Request{
			TaskHint:   req.TaskHint,
			FileCount:  len(req.Files),
			Extensions: exts,
		},
		Time: Clock{
			Hour: now.Hour(),
			Day:  now.Weekday().String(),
		},
	}

	allowed, reason, err := e.Evaluate(ctx, input)
	if err != nil {
		slog.Error("policy evaluation failed", "error", err)
		return false, "policy evaluation failed"
	}
	return allowed, reason
}

// LoadRegoFiles reads all .rego files from the given directory.
func LoadRegoFiles(dir string) (map[string]string, error) {
	return loadRegoDir(dir)
}
